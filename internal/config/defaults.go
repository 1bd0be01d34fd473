package config

const (
	defaultConfigPath      = "~/.config/torrentify/config.toml"
	defaultDestDir         = "/data/torrent"
	defaultTMDBCacheDir    = "/data/cache_tmdb"
	defaultITunesCacheDir  = "/data/cache_itunes"
	defaultFingerprintFile = "/data/trackers.fingerprint.sha256"
	defaultStateDir        = "/data/state"
	defaultLogDir          = "/data/logs"
	defaultTMDBBaseURL     = "https://api.themoviedb.org/3"
	defaultTMDBLanguage    = "fr-FR"
	defaultTMDBFallback    = "en-US"
	defaultITunesBaseURL   = "https://itunes.apple.com"
	defaultITunesMedia     = "music"
	defaultHTTPTimeout     = 15
	defaultToolTimeout     = 7200
	defaultNtfyTimeout     = 10
	defaultLogFormat       = "console"
	defaultLogLevel        = "info"
)

var (
	defaultVideoExtensions   = []string{"mkv", "mp4", "avi", "mov", "flv", "wmv", "m4v"}
	defaultAudioExtensions   = []string{"mp3", "flac", "aac", "wav"}
	defaultPartialExtensions = []string{"part", "tmp", "crdownload"}
)

// destNames maps a category to its directory name under paths.dest_dir and
// paths in the source tree. Music keeps the legacy "musiques" layout.
var destNames = map[string]string{
	CategoryFilms:  "films",
	CategorySeries: "series",
	CategoryMusic:  "musiques",
}

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			DestDir:         defaultDestDir,
			TMDBCacheDir:    defaultTMDBCacheDir,
			ITunesCacheDir:  defaultITunesCacheDir,
			FingerprintFile: defaultFingerprintFile,
			StateDir:        defaultStateDir,
			LogDir:          defaultLogDir,
		},
		Categories: Categories{
			Films: Category{
				SourceDir:         "/films",
				Extensions:        cloneStrings(defaultVideoExtensions),
				PartialExtensions: cloneStrings(defaultPartialExtensions),
			},
			Series: Category{
				SourceDir:         "/series",
				Extensions:        cloneStrings(defaultVideoExtensions),
				PartialExtensions: cloneStrings(defaultPartialExtensions),
			},
			Music: Category{
				SourceDir:         "/musiques",
				Extensions:        cloneStrings(defaultAudioExtensions),
				PartialGuard:      true,
				PartialExtensions: cloneStrings(defaultPartialExtensions),
			},
		},
		Trackers: Trackers{Private: true},
		TMDB: TMDB{
			BaseURL:          defaultTMDBBaseURL,
			Language:         defaultTMDBLanguage,
			FallbackLanguage: defaultTMDBFallback,
			TimeoutSeconds:   defaultHTTPTimeout,
		},
		ITunes: ITunes{
			BaseURL:        defaultITunesBaseURL,
			Media:          defaultITunesMedia,
			Limit:          1,
			TimeoutSeconds: defaultHTTPTimeout,
		},
		Tools: Tools{
			Mediainfo:      "mediainfo",
			Mkbrr:          "mkbrr",
			Python:         "python3",
			Guessit:        true,
			TimeoutSeconds: defaultToolTimeout,
		},
		Workflow: Workflow{ParallelJobs: 1},
		Retag:    Retag{Journal: true},
		Notifications: Notifications{
			RequestTimeout: defaultNtfyTimeout,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}

func cloneStrings(values []string) []string {
	return append([]string(nil), values...)
}
