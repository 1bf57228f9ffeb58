package config

const (
	defaultDatabase           = "~/.local/share/owlmap/owl_knowledge_map.db"
	defaultOutputDir          = "~/.local/share/owlmap/output"
	defaultLogDir             = "~/.local/share/owlmap/logs"
	defaultFuzzyThreshold     = 0.90
	defaultFuzzyConfidence    = 0.8
	defaultShortTermLength    = 5
	defaultShortContextLength = 12
	defaultVocabDirKeyword    = "vocab"
	defaultAuditFile          = "term_audit.csv"
	defaultDecisionLogFile    = "audit_decisions_log.csv"
	defaultLogFormat          = "console"
	defaultLogLevel           = "info"

	// DatabaseEnvVar overrides paths.database when set.
	DatabaseEnvVar = "OWLMAP_DB"
)

var defaultVocabExtensions = []string{".docx", ".txt", ".md", ".yaml", ".yml"}

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			Database:  defaultDatabase,
			OutputDir: defaultOutputDir,
			LogDir:    defaultLogDir,
		},
		Matching: Matching{
			FuzzyThreshold:     defaultFuzzyThreshold,
			FuzzyConfidence:    defaultFuzzyConfidence,
			ShortTermLength:    defaultShortTermLength,
			ShortContextLength: defaultShortContextLength,
		},
		Vocab: Vocab{
			DirKeyword:     defaultVocabDirKeyword,
			FileExtensions: append([]string(nil), defaultVocabExtensions...),
			PreferChapterOrdered: true,
		},
		Audit: Audit{
			AuditFile:       defaultAuditFile,
			DecisionLogFile: defaultDecisionLogFile,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
