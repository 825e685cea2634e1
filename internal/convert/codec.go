package convert

import (
	"fmt"
	"sort"
	"strings"
)

// samplingRates are the output rates ffmpeg may pick from when clamping
// lossless output. Anything above the configured ceiling is excluded.
var samplingRates = []int{44100, 48000, 88200, 96000, 176400, 192000}

// Codec describes one transcode target.
type Codec struct {
	Name       string
	Lib        string
	Container  string
	Lossless   bool
	defaultArg []string

	// qualityArg maps a bitrate request to encoder arguments. Nil means the
	// codec ignores bitrate requests.
	qualityArg func(kbps int) ([]string, error)
}

var lameBitrates = map[int][]string{
	320: {"-b:a", "320k"},
	245: {"-q:a", "0"},
	225: {"-q:a", "1"},
	190: {"-q:a", "2"},
	175: {"-q:a", "3"},
	165: {"-q:a", "4"},
	130: {"-q:a", "5"},
	115: {"-q:a", "6"},
	100: {"-q:a", "7"},
	85:  {"-q:a", "8"},
	65:  {"-q:a", "9"},
}

var codecs = map[string]Codec{
	"FLAC": {Name: "flac", Lib: "flac", Container: "flac", Lossless: true},
	"ALAC": {Name: "alac", Lib: "alac", Container: "m4a", Lossless: true},
	"MP3": {
		Name: "lame", Lib: "libmp3lame", Container: "mp3",
		defaultArg: []string{"-q:a", "0"},
		qualityArg: lameQualityArg,
	},
	"OPUS": {
		Name: "opus", Lib: "libopus", Container: "opus",
		defaultArg: []string{"-b:a", "128k"},
	},
	"VORBIS": {
		Name: "vorbis", Lib: "libvorbis", Container: "ogg",
		defaultArg: []string{"-q:a", "6"},
		qualityArg: vorbisQualityArg,
	},
	"AAC": {
		Name: "aac", Lib: "aac", Container: "m4a",
		defaultArg: []string{"-b:a", "256k"},
	},
}

var codecAliases = map[string]string{
	"OGG": "VORBIS",
	"M4A": "AAC",
}

// Lookup resolves a codec by configuration name (case-insensitive, aliases
// included).
func Lookup(name string) (Codec, error) {
	key := strings.ToUpper(strings.TrimSpace(name))
	if canonical, ok := codecAliases[key]; ok {
		key = canonical
	}
	codec, ok := codecs[key]
	if !ok {
		return Codec{}, fmt.Errorf("unknown codec %q (supported: %s)", name, strings.Join(SupportedCodecs(), ", "))
	}
	return codec, nil
}

// SupportedCodecs lists the configuration names Lookup accepts.
func SupportedCodecs() []string {
	names := make([]string, 0, len(codecs)+len(codecAliases))
	for name := range codecs {
		names = append(names, name)
	}
	for alias := range codecAliases {
		names = append(names, alias)
	}
	sort.Strings(names)
	return names
}

// Identity reports whether transcoding into this codec would be a no-op for
// a file with the given extension. Identity conversions skip ffmpeg entirely.
func (c Codec) Identity(extension string) bool {
	ext := strings.ToLower(strings.TrimSpace(extension))
	return ext != "" && ext == c.Container
}

// Options adjusts a single conversion.
type Options struct {
	// BitrateKbps requests a target bitrate. Ignored by lossless codecs and
	// by codecs without a bitrate ladder.
	BitrateKbps int
	// SamplingRate caps the output sample rate for lossless codecs.
	SamplingRate int
	// BitDepth caps the output bit depth for lossless codecs. Must be 16, 24,
	// or 32 when set.
	BitDepth int
}

// BuildArgs produces the ffmpeg argument list for converting input to output.
func (c Codec) BuildArgs(input, output string, opts Options) ([]string, error) {
	args := []string{"-i", input, "-loglevel", "error", "-c:a", c.Lib, "-c:v", "copy"}

	quality := c.defaultArg
	if opts.BitrateKbps > 0 && c.qualityArg != nil && !c.Lossless {
		resolved, err := c.qualityArg(opts.BitrateKbps)
		if err != nil {
			return nil, err
		}
		quality = resolved
	}
	args = append(args, quality...)

	if c.Lossless {
		aformat, err := aformatFilter(opts)
		if err != nil {
			return nil, err
		}
		if aformat != "" {
			args = append(args, "-af", aformat)
		}
	}

	return append(args, "-y", output), nil
}

func aformatFilter(opts Options) (string, error) {
	var parts []string

	if opts.SamplingRate > 0 {
		var rates []string
		for _, rate := range samplingRates {
			if rate <= opts.SamplingRate {
				rates = append(rates, fmt.Sprint(rate))
			}
		}
		if len(rates) == 0 {
			return "", fmt.Errorf("sampling rate %d is below the minimum supported rate %d", opts.SamplingRate, samplingRates[0])
		}
		parts = append(parts, "sample_rates="+strings.Join(rates, "|"))
	}

	if opts.BitDepth > 0 {
		formats := []string{"s16p", "s16"}
		switch opts.BitDepth {
		case 16:
		case 24, 32:
			formats = append(formats, "s32p", "s32")
		default:
			return "", fmt.Errorf("bit depth must be 16, 24, or 32, got %d", opts.BitDepth)
		}
		parts = append(parts, "sample_fmts="+strings.Join(formats, "|"))
	}

	if len(parts) == 0 {
		return "", nil
	}
	return "aformat=" + strings.Join(parts, ":"), nil
}

func lameQualityArg(kbps int) ([]string, error) {
	args, ok := lameBitrates[kbps]
	if !ok {
		rates := make([]int, 0, len(lameBitrates))
		for rate := range lameBitrates {
			rates = append(rates, rate)
		}
		sort.Ints(rates)
		return nil, fmt.Errorf("unsupported mp3 bitrate %d (supported: %v)", kbps, rates)
	}
	return args, nil
}

// vorbisQualityArg maps a bitrate to the libvorbis quality scale using the
// encoder's approximate bitrate curve.
func vorbisQualityArg(kbps int) ([]string, error) {
	var q int
	switch {
	case kbps <= 128:
		q = kbps/16 - 4
	case kbps <= 256:
		q = kbps / 32
	default:
		q = kbps/64 + 4
	}
	return []string{"-qscale:a", fmt.Sprint(q)}, nil
}
