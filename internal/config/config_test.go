package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// --- Validate ---

func TestValidate_ValidConfig(t *testing.T) {
	cfg := Defaults()
	if err := Validate(cfg); err != nil {
		t.Fatalf("expected valid config, got: %v", err)
	}
}

func TestValidate_InvalidLogLevel(t *testing.T) {
	cfg := Defaults()
	cfg.General.LogLevel = "verbose"
	if err := Validate(cfg); err == nil {
		t.Fatal("expected error for logLevel=verbose")
	}
}

func TestValidate_NonIdentifierMethod(t *testing.T) {
	cfg := Defaults()
	cfg.Types.Method = "register Tool"
	if err := Validate(cfg); err == nil {
		t.Fatal("expected error for method with a space")
	}

	cfg = Defaults()
	cfg.AddTool.Wrapper = ""
	if err := Validate(cfg); err == nil {
		t.Fatal("expected error for empty wrapper")
	}
}

func TestValidate_IndentMustBeWhitespace(t *testing.T) {
	cfg := Defaults()
	cfg.AddTool.Indent = "\t\t"
	if err := Validate(cfg); err != nil {
		t.Fatalf("tab indent should be valid: %v", err)
	}

	cfg.AddTool.Indent = "--"
	if err := Validate(cfg); err == nil {
		t.Fatal("expected error for non-whitespace indent")
	}
}

func TestValidate_Placement(t *testing.T) {
	for _, p := range []string{"wrapper", "argument"} {
		cfg := Defaults()
		cfg.Types.Placement = p
		if err := Validate(cfg); err != nil {
			t.Fatalf("placement %q should be valid: %v", p, err)
		}
	}

	cfg := Defaults()
	cfg.Types.Placement = "inline"
	if err := Validate(cfg); err == nil {
		t.Fatal("expected error for placement=inline")
	}
}

func TestValidate_Windows_Boundary(t *testing.T) {
	cfg := Defaults()
	cfg.Types.AnnotatedWindow = 1
	cfg.Types.HandlerWindow = 1
	if err := Validate(cfg); err != nil {
		t.Fatalf("windows of 1 should be valid: %v", err)
	}

	cfg.Types.HandlerWindow = 0
	if err := Validate(cfg); err == nil {
		t.Fatal("expected error for handlerWindow=0")
	}
}

func TestValidate_Extensions(t *testing.T) {
	cfg := Defaults()
	cfg.Scan.Extensions = nil
	if err := Validate(cfg); err == nil {
		t.Fatal("expected error for empty extensions")
	}

	cfg = Defaults()
	cfg.Scan.Extensions = []string{"ts"}
	if err := Validate(cfg); err == nil {
		t.Fatal("expected error for extension without dot")
	}
}

func TestValidate_JournalPathRequired(t *testing.T) {
	cfg := Defaults()
	cfg.Journal.Enabled = true
	cfg.Journal.DBPath = ""
	if err := Validate(cfg); err == nil {
		t.Fatal("expected error for enabled journal without dbPath")
	}

	cfg.Journal.Enabled = false
	if err := Validate(cfg); err != nil {
		t.Fatalf("disabled journal needs no path: %v", err)
	}
}

func TestValidate_CollectsAllErrors(t *testing.T) {
	cfg := Defaults()
	cfg.General.LogLevel = "loud"
	cfg.Types.Placement = "nowhere"
	err := Validate(cfg)
	if err == nil {
		t.Fatal("expected validation error")
	}
	if !strings.Contains(err.Error(), "logLevel") || !strings.Contains(err.Error(), "placement") {
		t.Fatalf("expected both problems reported, got: %v", err)
	}
}

// --- Load / Save ---

func TestLoadSave_RoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.json")

	original := Defaults()
	original.Types.Placement = "argument"
	original.Types.TypeMap = map[string]string{"date": "Date"}

	if err := Save(path, original); err != nil {
		t.Fatalf("save: %v", err)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	if loaded.Types.Placement != "argument" {
		t.Fatalf("expected 'argument', got %q", loaded.Types.Placement)
	}
	if loaded.Types.TypeMap["date"] != "Date" {
		t.Fatalf("typeMap not round-tripped: %v", loaded.Types.TypeMap)
	}
}

func TestLoad_PartialFileKeepsDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.json")
	if err := os.WriteFile(path, []byte(`{"addtool": {"indent": "  "}}`), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.AddTool.Indent != "  " {
		t.Fatalf("expected overridden indent, got %q", cfg.AddTool.Indent)
	}
	if cfg.AddTool.Wrapper != "createToolHandler" {
		t.Fatalf("expected default wrapper, got %q", cfg.AddTool.Wrapper)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load("/nonexistent/path/config.json")
	if err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestLoad_InvalidJSON(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bad.json")
	os.WriteFile(path, []byte("{not json}"), 0o644)

	_, err := Load(path)
	if err == nil {
		t.Fatal("expected error for invalid JSON")
	}
}

func TestLoad_ValidatesConfig(t *testing.T) {
	dir := t.TempDir()
	cfgFile := filepath.Join(dir, "config.json")
	content := `{
		"types": {
			"annotatedWindow": 0
		}
	}`
	if err := os.WriteFile(cfgFile, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	_, err := Load(cfgFile)
	if err == nil {
		t.Fatal("expected validation error for annotatedWindow=0")
	}
}

func TestLoad_WithEnvVarSubstitution(t *testing.T) {
	t.Setenv("TEST_TSFIX_JOURNAL", "/tmp/test-journal.db")

	dir := t.TempDir()
	cfgFile := filepath.Join(dir, "config.json")
	content := `{
		"journal": {
			"enabled": true,
			"dbPath": "${TEST_TSFIX_JOURNAL}"
		}
	}`
	if err := os.WriteFile(cfgFile, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(cfgFile)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Journal.DBPath != "/tmp/test-journal.db" {
		t.Fatalf("expected '/tmp/test-journal.db', got %q", cfg.Journal.DBPath)
	}
}

func TestExpandPaths_Home(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skip("no home directory")
	}
	cfg := Defaults()
	ExpandPaths(cfg)
	if cfg.Journal.DBPath != filepath.Join(home, ".tsfix", "journal.db") {
		t.Fatalf("unexpected db path: %q", cfg.Journal.DBPath)
	}
	if strings.HasPrefix(cfg.General.RulesDir, "~") {
		t.Fatalf("rules dir not expanded: %q", cfg.General.RulesDir)
	}
}

// --- Accessor ---

func TestGetByPath_ValidPaths(t *testing.T) {
	cfg := Defaults()

	val, err := GetByPath(cfg, "addtool.newMethod")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if val != "registerTool" {
		t.Fatalf("expected 'registerTool', got %v", val)
	}
}

func TestGetByPath_ArrayIndex(t *testing.T) {
	cfg := Defaults()
	val, err := GetByPath(cfg, "scan.extensions.1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if val != ".tsx" {
		t.Fatalf("expected '.tsx', got %v", val)
	}
}

func TestGetByPath_InvalidPath(t *testing.T) {
	cfg := Defaults()
	_, err := GetByPath(cfg, "nonexistent.path")
	if err == nil {
		t.Fatal("expected error for nonexistent path")
	}
}

func TestSetByPath_ValidPath(t *testing.T) {
	cfg := Defaults()
	if err := SetByPath(cfg, "types.wrapper", "withTypes"); err != nil {
		t.Fatalf("set: %v", err)
	}
	if cfg.Types.Wrapper != "withTypes" {
		t.Fatalf("expected 'withTypes', got %q", cfg.Types.Wrapper)
	}
}

func TestDefaults_JournalDisabled(t *testing.T) {
	if Defaults().Journal.Enabled {
		t.Fatal("journal must be opt-in")
	}
}

func TestSetByPath_BoolConversion(t *testing.T) {
	cfg := Defaults()
	if err := SetByPath(cfg, "journal.enabled", "true"); err != nil {
		t.Fatalf("set bool: %v", err)
	}
	if !cfg.Journal.Enabled {
		t.Fatal("expected journal.enabled=true")
	}
	if err := SetByPath(cfg, "journal.enabled", "maybe"); err == nil {
		t.Fatal("expected error for non-bool value")
	}
}

func TestSetByPath_IntConversion(t *testing.T) {
	cfg := Defaults()
	if err := SetByPath(cfg, "types.handlerWindow", "500"); err != nil {
		t.Fatalf("set int: %v", err)
	}
	if cfg.Types.HandlerWindow != 500 {
		t.Fatalf("expected 500, got %d", cfg.Types.HandlerWindow)
	}
}

func TestSetByPath_CreatesMapEntry(t *testing.T) {
	cfg := Defaults()
	if err := SetByPath(cfg, "types.typeMap.date", "Date"); err != nil {
		t.Fatalf("set map entry: %v", err)
	}
	if cfg.Types.TypeMap["date"] != "Date" {
		t.Fatalf("expected typeMap.date=Date, got %v", cfg.Types.TypeMap)
	}
}

// --- ListPaths ---

func TestListPaths_ReturnsAllLeaves(t *testing.T) {
	cfg := Defaults()
	paths := make(map[string]any)
	for _, e := range ListPaths(cfg) {
		paths[e.Path] = e.Value
	}

	for _, expected := range []string{"general.logLevel", "addtool.indent", "types.placement", "journal.enabled"} {
		if _, ok := paths[expected]; !ok {
			t.Errorf("missing expected path: %s", expected)
		}
	}
}

func TestListPaths_SectionOrder(t *testing.T) {
	cfg := Defaults()
	cfg.Types.TypeMap = map[string]string{"uuid": "string", "date": "Date"}
	entries := ListPaths(cfg)

	if entries[0].Path != "general.logLevel" {
		t.Fatalf("expected general.logLevel first, got %s", entries[0].Path)
	}
	if last := entries[len(entries)-1].Path; last != "journal.retentionDays" {
		t.Fatalf("expected journal.retentionDays last, got %s", last)
	}

	index := make(map[string]int)
	for i, e := range entries {
		index[e.Path] = i
	}
	if !(index["addtool.receiver"] < index["types.receiver"] && index["types.receiver"] < index["scan.extensions"]) {
		t.Fatalf("sections out of order: %v", entries)
	}
	if index["types.typeMap.date"] >= index["types.typeMap.uuid"] {
		t.Fatal("typeMap entries should be sorted by key")
	}
}

func TestSetByPath_InvalidPlacementLeavesConfigUnchanged(t *testing.T) {
	cfg := Defaults()
	err := SetByPath(cfg, "types.placement", "sideways")
	if err == nil || !strings.Contains(err.Error(), "placement") {
		t.Fatalf("expected placement validation error, got %v", err)
	}
	if cfg.Types.Placement != "wrapper" {
		t.Fatalf("config modified on failed set: %q", cfg.Types.Placement)
	}
}

func TestSetByPath_WindowMustBePositiveInt(t *testing.T) {
	cfg := Defaults()
	if err := SetByPath(cfg, "types.handlerWindow", "0"); err == nil {
		t.Fatal("expected validation error for handlerWindow=0")
	}
	if err := SetByPath(cfg, "types.annotatedWindow", "ten"); err == nil {
		t.Fatal("expected parse error for non-integer window")
	}
	if cfg.Types.HandlerWindow != 200 || cfg.Types.AnnotatedWindow != 10 {
		t.Fatalf("windows modified on failed set: %+v", cfg.Types)
	}
}

func TestSetByPath_UnknownKey(t *testing.T) {
	cfg := Defaults()
	if err := SetByPath(cfg, "types.colour", "blue"); err == nil {
		t.Fatal("expected error for unknown key")
	}
	if err := SetByPath(cfg, "types", "x"); err == nil {
		t.Fatal("expected error when setting a whole section")
	}
}

func TestSetByPath_TypeMapValueStaysString(t *testing.T) {
	cfg := Defaults()
	if err := SetByPath(cfg, "types.typeMap.literal", "123"); err != nil {
		t.Fatalf("set: %v", err)
	}
	if cfg.Types.TypeMap["literal"] != "123" {
		t.Fatalf("expected string '123', got %v", cfg.Types.TypeMap)
	}
	if err := SetByPath(cfg, "types.typeMap.literal", ""); err != nil {
		t.Fatalf("unset: %v", err)
	}
	if _, ok := cfg.Types.TypeMap["literal"]; ok {
		t.Fatal("empty value should remove the entry")
	}
}

func TestSetByPath_ListAndIndex(t *testing.T) {
	cfg := Defaults()
	if err := SetByPath(cfg, "scan.extensions", ".ts, .mts"); err != nil {
		t.Fatalf("set list: %v", err)
	}
	if len(cfg.Scan.Extensions) != 2 || cfg.Scan.Extensions[1] != ".mts" {
		t.Fatalf("unexpected extensions: %v", cfg.Scan.Extensions)
	}

	before := cfg.Scan.Extensions
	if err := SetByPath(cfg, "scan.extensions.0", "ts"); err == nil {
		t.Fatal("expected validation error for extension without dot")
	}
	if before[0] != ".ts" {
		t.Fatal("failed set must not mutate the original slice")
	}
}

// --- ExpandEnvVars ---

func TestExpandEnvVars_SimpleSubstitution(t *testing.T) {
	t.Setenv("TEST_WRAPPER", "wrapTool")
	result := ExpandEnvVars(`{"wrapper": "${TEST_WRAPPER}"}`)
	expected := `{"wrapper": "wrapTool"}`
	if result != expected {
		t.Fatalf("expected %q, got %q", expected, result)
	}
}

func TestExpandEnvVars_DefaultValue(t *testing.T) {
	os.Unsetenv("NONEXISTENT_VAR_12345")
	result := ExpandEnvVars(`{"window": "${NONEXISTENT_VAR_12345:-200}"}`)
	expected := `{"window": "200"}`
	if result != expected {
		t.Fatalf("expected %q, got %q", expected, result)
	}
}

func TestExpandEnvVars_SetVarOverridesDefault(t *testing.T) {
	t.Setenv("MY_WINDOW", "400")
	result := ExpandEnvVars(`{"window": "${MY_WINDOW:-200}"}`)
	expected := `{"window": "400"}`
	if result != expected {
		t.Fatalf("expected %q, got %q", expected, result)
	}
}

func TestExpandEnvVars_UnsetVarNoDefault_KeepsOriginal(t *testing.T) {
	os.Unsetenv("TOTALLY_UNSET_VAR_XYZ")
	result := ExpandEnvVars(`"${TOTALLY_UNSET_VAR_XYZ}"`)
	expected := `"${TOTALLY_UNSET_VAR_XYZ}"`
	if result != expected {
		t.Fatalf("expected %q, got %q", expected, result)
	}
}

func TestExpandEnvVars_EmptyVarUsesDefault(t *testing.T) {
	t.Setenv("EMPTY_VAR", "")
	result := ExpandEnvVars(`"${EMPTY_VAR:-fallback}"`)
	expected := `"fallback"`
	if result != expected {
		t.Fatalf("expected %q, got %q", expected, result)
	}
}

func TestExpandEnvVars_DollarSignWithoutBraces(t *testing.T) {
	input := `"$HOME is not substituted"`
	result := ExpandEnvVars(input)
	if result != input {
		t.Fatalf("expected no change for bare $VAR, got %q", result)
	}
}
