package config

import (
	"encoding/json"
	"flag"
	"os"
	"strings"
)

type Config struct {
	Port      string   `json:"port"`
	DBURL     string   `json:"dbUrl"`
	Schema    string   `json:"schema"`    // pg-схема для отражения
	Tables    []string `json:"tables"`    // пусто = все таблицы схемы
	AdminFile string   `json:"adminFile"` // yaml с admin-переопределениями
	ReadOnly  bool     `json:"readOnly"`  // запретить запись для всех моделей
}

func def() Config {
	return Config{
		Port:      "8080",
		DBURL:     "",
		Schema:    "public",
		Tables:    nil,
		AdminFile: "",
		ReadOnly:  false,
	}
}

func loadJSON(path string) (Config, error) {
	c := def()
	b, err := os.ReadFile(path)
	if err != nil {
		return c, err
	}
	if err := json.Unmarshal(b, &c); err != nil {
		return c, err
	}
	return c, nil
}

func getenv(k, fallback string) string {
	if v, ok := os.LookupEnv(k); ok && strings.TrimSpace(v) != "" {
		return v
	}
	return fallback
}

func splitList(s string) []string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// LoadWithPath читает JSON по указанному пути, потом применяет ENV и флаги.
func LoadWithPath(jsonPath string) Config {
	return load(jsonPath, os.Args[1:])
}

// load работает на собственном FlagSet: перечитывание конфига
// через -config не регистрирует флаги процесса повторно.
func load(jsonPath string, args []string) Config {
	cfg := def()

	// JSON (если файл существует)
	if st, err := os.Stat(jsonPath); err == nil && !st.IsDir() {
		if c2, err := loadJSON(jsonPath); err == nil {
			cfg = c2
		}
	}

	// ENV overrides
	cfg.Port = getenv("REVIZOR_PORT", cfg.Port)
	cfg.DBURL = getenv("REVIZOR_DB_URL", cfg.DBURL)
	cfg.Schema = getenv("REVIZOR_SCHEMA", cfg.Schema)
	cfg.AdminFile = getenv("REVIZOR_ADMIN_FILE", cfg.AdminFile)
	if v := getenv("REVIZOR_TABLES", ""); v != "" {
		cfg.Tables = splitList(v)
	}
	if v := getenv("REVIZOR_READ_ONLY", ""); v != "" {
		cfg.ReadOnly = v == "true" || v == "1"
	}

	// Flags overrides
	fs := flag.NewFlagSet("revizor", flag.ExitOnError)
	configPath := fs.String("config", jsonPath, "Path to config JSON")
	port := fs.String("port", cfg.Port, "HTTP port")
	db := fs.String("db", cfg.DBURL, "Postgres URL")
	schema := fs.String("schema", cfg.Schema, "Schema to reflect")
	tables := fs.String("tables", strings.Join(cfg.Tables, ","), "Tables to reflect (comma-separated, empty = all)")
	adminFile := fs.String("admin", cfg.AdminFile, "Path to admin overrides yaml")
	readOnly := fs.Bool("read-only", cfg.ReadOnly, "Disable create/update/delete for all models")

	_ = fs.Parse(args)

	// Если через флаг передали другой конфиг — перечитаем
	if *configPath != jsonPath {
		return load(*configPath, args)
	}

	cfg.Port = strings.TrimSpace(*port)
	cfg.DBURL = strings.TrimSpace(*db)
	cfg.Schema = strings.TrimSpace(*schema)
	cfg.Tables = splitList(*tables)
	cfg.AdminFile = strings.TrimSpace(*adminFile)
	cfg.ReadOnly = *readOnly

	return cfg
}
