package convert

import (
	"strings"
	"testing"
)

func TestLookupAcceptsAliases(t *testing.T) {
	cases := map[string]string{
		"flac":   "flac",
		"FLAC":   "flac",
		"mp3":    "lame",
		"ogg":    "vorbis",
		"vorbis": "vorbis",
		"m4a":    "aac",
		"aac":    "aac",
		"opus":   "opus",
		"alac":   "alac",
	}
	for input, wantName := range cases {
		codec, err := Lookup(input)
		if err != nil {
			t.Errorf("Lookup(%q): %v", input, err)
			continue
		}
		if codec.Name != wantName {
			t.Errorf("Lookup(%q).Name = %q, want %q", input, codec.Name, wantName)
		}
	}

	if _, err := Lookup("wav"); err == nil {
		t.Fatal("expected unknown codec error")
	}
}

func TestIdentity(t *testing.T) {
	flac, _ := Lookup("flac")
	if !flac.Identity("flac") {
		t.Fatal("flac -> flac is identity")
	}
	if !flac.Identity("FLAC") {
		t.Fatal("identity check is case-insensitive")
	}
	if flac.Identity("mp3") {
		t.Fatal("mp3 -> flac is not identity")
	}
	if flac.Identity("") {
		t.Fatal("unknown extension is never identity")
	}
	aac, _ := Lookup("aac")
	if !aac.Identity("m4a") {
		t.Fatal("m4a -> aac container is identity")
	}
}

func TestBuildArgsLossless(t *testing.T) {
	flac, _ := Lookup("flac")
	args, err := flac.BuildArgs("in.wav", "out.flac", Options{SamplingRate: 48000, BitDepth: 24})
	if err != nil {
		t.Fatalf("BuildArgs: %v", err)
	}
	joined := strings.Join(args, " ")
	for _, want := range []string{
		"-i in.wav",
		"-c:a flac",
		"-c:v copy",
		"-af aformat=sample_rates=44100|48000:sample_fmts=s16p|s16|s32p|s32",
		"-y out.flac",
	} {
		if !strings.Contains(joined, want) {
			t.Errorf("args missing %q: %s", want, joined)
		}
	}
}

func TestBuildArgsLosslessIgnoresBitrate(t *testing.T) {
	flac, _ := Lookup("flac")
	args, err := flac.BuildArgs("in.wav", "out.flac", Options{BitrateKbps: 320})
	if err != nil {
		t.Fatalf("BuildArgs: %v", err)
	}
	if strings.Contains(strings.Join(args, " "), "320") {
		t.Fatalf("lossless codec honored a bitrate request: %v", args)
	}
}

func TestBuildArgsMP3Bitrates(t *testing.T) {
	mp3, _ := Lookup("mp3")

	args, err := mp3.BuildArgs("in.flac", "out.mp3", Options{BitrateKbps: 320})
	if err != nil {
		t.Fatalf("BuildArgs: %v", err)
	}
	if !strings.Contains(strings.Join(args, " "), "-b:a 320k") {
		t.Fatalf("expected CBR 320 args, got %v", args)
	}

	args, err = mp3.BuildArgs("in.flac", "out.mp3", Options{BitrateKbps: 245})
	if err != nil {
		t.Fatalf("BuildArgs: %v", err)
	}
	if !strings.Contains(strings.Join(args, " "), "-q:a 0") {
		t.Fatalf("expected V0 args, got %v", args)
	}

	if _, err := mp3.BuildArgs("in.flac", "out.mp3", Options{BitrateKbps: 123}); err == nil {
		t.Fatal("expected error for unsupported bitrate")
	}

	// No bitrate request falls back to the codec default.
	args, err = mp3.BuildArgs("in.flac", "out.mp3", Options{})
	if err != nil {
		t.Fatalf("BuildArgs: %v", err)
	}
	if !strings.Contains(strings.Join(args, " "), "-q:a 0") {
		t.Fatalf("expected default V0 args, got %v", args)
	}
}

func TestBuildArgsVorbisQualityCurve(t *testing.T) {
	vorbis, _ := Lookup("vorbis")
	cases := map[int]string{
		128: "-qscale:a 4",
		160: "-qscale:a 5",
		256: "-qscale:a 8",
		320: "-qscale:a 9",
	}
	for kbps, want := range cases {
		args, err := vorbis.BuildArgs("in.flac", "out.ogg", Options{BitrateKbps: kbps})
		if err != nil {
			t.Fatalf("BuildArgs(%d): %v", kbps, err)
		}
		if !strings.Contains(strings.Join(args, " "), want) {
			t.Errorf("%d kbps: expected %q in %v", kbps, want, args)
		}
	}
}

func TestBuildArgsRejectsBadBitDepth(t *testing.T) {
	flac, _ := Lookup("flac")
	if _, err := flac.BuildArgs("in.wav", "out.flac", Options{BitDepth: 20}); err == nil {
		t.Fatal("expected bit depth error")
	}
}

func TestBuildArgsRejectsTooLowSamplingRate(t *testing.T) {
	flac, _ := Lookup("flac")
	if _, err := flac.BuildArgs("in.wav", "out.flac", Options{SamplingRate: 22050}); err == nil {
		t.Fatal("expected sampling rate error")
	}
}
