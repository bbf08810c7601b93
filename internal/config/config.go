package config

import (
	"os"
	"path/filepath"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Settings holds connection and server settings loaded from neoaccess.yml.
type Settings struct {
	Neo4j  Neo4jSettings  `yaml:"neo4j,omitempty"`
	Server ServerSettings `yaml:"server,omitempty"`
}

// Neo4jSettings configures the Bolt connection.
type Neo4jSettings struct {
	URI      string `yaml:"uri,omitempty"`
	Username string `yaml:"username,omitempty"`
	Password string `yaml:"password,omitempty"`
	Database string `yaml:"database,omitempty"`
}

// ServerSettings configures the MCP tool server.
type ServerSettings struct {
	Port int `yaml:"port,omitempty"`
}

// Defaults match a stock local Neo4j install.
func defaults() *Settings {
	return &Settings{
		Neo4j: Neo4jSettings{
			URI:      "bolt://localhost:7687",
			Username: "neo4j",
			Database: "neo4j",
		},
		Server: ServerSettings{Port: 8977},
	}
}

// Load reads neoaccess.yml or neoaccess.yaml from the given directory and
// applies environment overrides on top. A missing file is not an error:
// defaults plus environment are returned.
func Load(dir string) (*Settings, error) {
	cfg := defaults()
	for _, name := range []string{"neoaccess.yml", "neoaccess.yaml"} {
		path := filepath.Join(dir, name)
		data, err := os.ReadFile(path)
		if err != nil {
			continue
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, err
		}
		break
	}
	applyEnv(cfg)
	return cfg, nil
}

// applyEnv overlays NEO4J_* / NEOACCESS_* environment variables, which win
// over both defaults and file settings. Passwords in particular are
// expected to arrive this way rather than sitting in a checked-in file.
func applyEnv(cfg *Settings) {
	if v := os.Getenv("NEO4J_URI"); v != "" {
		cfg.Neo4j.URI = v
	}
	if v := os.Getenv("NEO4J_USERNAME"); v != "" {
		cfg.Neo4j.Username = v
	}
	if v := os.Getenv("NEO4J_PASSWORD"); v != "" {
		cfg.Neo4j.Password = v
	}
	if v := os.Getenv("NEO4J_DATABASE"); v != "" {
		cfg.Neo4j.Database = v
	}
	if v := os.Getenv("NEOACCESS_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = port
		}
	}
}
