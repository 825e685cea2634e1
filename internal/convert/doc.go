// Package convert transcodes staged downloads with ffmpeg. Each codec knows
// its encoder library, container, and quality arguments; the Runner builds
// the command, encodes into a temp file, and moves it into place only after
// ffmpeg exits cleanly.
package convert
