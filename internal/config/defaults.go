package config

func Defaults() *Config {
	return &Config{
		General: GeneralConfig{
			LogLevel: "info",
			RulesDir: "~/.tsfix/rules",
		},
		AddTool: AddToolConfig{
			Receiver:  "this",
			OldMethod: "addTool",
			NewMethod: "registerTool",
			Wrapper:   "createToolHandler",
			Indent:    "    ",
		},
		Types: TypesConfig{
			Receiver:        "this",
			Method:          "registerTool",
			Wrapper:         "createToolHandler",
			SchemaSuffix:    "Schema",
			Placement:       "wrapper",
			AnnotatedWindow: 10,
			HandlerWindow:   200,
		},
		Scan: ScanConfig{
			Extensions: []string{".ts", ".tsx", ".mts", ".cts"},
		},
		// Undo history is opt-in; by default only the target files are touched.
		Journal: JournalConfig{
			Enabled:       false,
			DBPath:        "~/.tsfix/journal.db",
			RetentionDays: 30,
		},
	}
}
