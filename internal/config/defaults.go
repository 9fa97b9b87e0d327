package config

const (
	defaultOutputDir     = "~/.local/share/platter/output"
	defaultTempDir       = "~/.local/share/platter/tmp"
	defaultLogDir        = "~/.local/share/platter/logs"
	defaultAPIBind       = "127.0.0.1:7821"
	defaultFFmpegBinary  = "ffmpeg"
	defaultFFprobeBinary = "ffprobe"
	defaultFormat        = "mp4"
	defaultAudioTracks   = "all"
	defaultOpticalDrive  = "/dev/sr0"
	defaultLogFormat     = "console"
	defaultLogLevel      = "info"
)

func defaultVolumeRoots() []string {
	return []string{"/Volumes", "/media", "/mnt"}
}

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			OutputDir: defaultOutputDir,
			TempDir:   defaultTempDir,
			LogDir:    defaultLogDir,
			APIBind:   defaultAPIBind,
		},
		Engine: Engine{
			FFmpegBinary:  defaultFFmpegBinary,
			FFprobeBinary: defaultFFprobeBinary,
		},
		Conversion: Conversion{
			DefaultFormat: defaultFormat,
			AudioTracks:   defaultAudioTracks,
			Subtitles:     true,
		},
		Detection: Detection{
			OpticalDrive: defaultOpticalDrive,
			VolumeRoots:  defaultVolumeRoots(),
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
