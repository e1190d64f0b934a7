package encoder

// BuildArgs constructs the full ffmpeg argument list for one transcode.
// Deep mode trades runtime for a smaller file: lower bitrate targets on
// VideoToolbox, higher quantizer and slower presets elsewhere.
func BuildArgs(p Profile, deep bool, inputPath, outputPath string) []string {
	var args []string

	if p.HWAccel != "" {
		args = append(args, "-hwaccel", p.HWAccel)
	}

	args = append(args, "-i", inputPath)

	switch p.Kind {
	case AppleHardware:
		if deep {
			args = append(args, "-c:v", p.Encoder, "-b:v", "1M", "-q:v", "50")
		} else {
			args = append(args, "-c:v", p.Encoder, "-b:v", "2M", "-q:v", "65")
		}
	case IntelQuickSync:
		if deep {
			args = append(args, "-c:v", p.Encoder, "-global_quality", "30", "-preset", "veryslow")
		} else {
			args = append(args, "-c:v", p.Encoder, "-global_quality", "25", "-preset", "slow")
		}
	default:
		if deep {
			args = append(args, "-c:v", p.Encoder, "-crf", "30", "-preset", "veryslow")
		} else {
			args = append(args, "-c:v", p.Encoder, "-crf", "26", "-preset", "medium")
		}
	}

	// hvc1 tagging keeps the output playable on Apple devices; faststart
	// moves the moov atom up front so the result streams immediately.
	args = append(args,
		"-c:a", "aac",
		"-b:a", "128k",
		"-tag:v", "hvc1",
		"-movflags", "+faststart",
		"-y",
		outputPath,
	)

	return args
}
