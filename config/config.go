// Package config loads a party's session descriptor: which ring to
// run over, the cluster's world size and this party's rank in it, and
// the root secrets a PRG service and Beaver dealer are derived from.
// None of this is named by the algebra the kernel package implements,
// but every deployed instance of it needs exactly this much ambient
// bootstrap, loaded the way a YAML-described test-parameter set is
// loaded elsewhere in this codebase's lineage.
package config

import (
	"encoding/hex"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/privacystack/ringshare/ring"
)

// PartyConfig describes one member of the cluster roster.
type PartyConfig struct {
	Rank    int    `yaml:"rank"`
	Address string `yaml:"address"`
}

// Session is a single party's view of a run: the ring it computes
// over, its position in the cluster, and the secret material its PRG
// service and Beaver provider are bootstrapped from.
type Session struct {
	Field         string        `yaml:"field"`
	WorldSize     int           `yaml:"world_size"`
	Rank          int           `yaml:"rank"`
	PRSSRootHex   string        `yaml:"prss_root"`
	DealerSeedHex string        `yaml:"dealer_seed"`
	Parties       []PartyConfig `yaml:"parties"`
}

// Load reads and validates a Session descriptor from a YAML file.
func Load(path string) (*Session, error) {
	buf, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}
	var s Session
	if err := yaml.Unmarshal(buf, &s); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}
	if err := s.Validate(); err != nil {
		return nil, fmt.Errorf("config: %s: %w", path, err)
	}
	return &s, nil
}

// Validate checks internal consistency of the descriptor.
func (s *Session) Validate() error {
	if _, err := s.ResolveField(); err != nil {
		return err
	}
	if s.WorldSize < 1 {
		return fmt.Errorf("config: world_size must be >= 1, got %d", s.WorldSize)
	}
	if s.Rank < 0 || s.Rank >= s.WorldSize {
		return fmt.Errorf("config: rank %d out of range [0,%d)", s.Rank, s.WorldSize)
	}
	if len(s.Parties) != 0 && len(s.Parties) != s.WorldSize {
		return fmt.Errorf("config: %d parties listed, want %d", len(s.Parties), s.WorldSize)
	}
	if _, err := s.PRSSRoot(); err != nil {
		return err
	}
	if _, err := s.DealerSeed(); err != nil {
		return err
	}
	return nil
}

// ResolveField maps the descriptor's field name to a ring.Field.
func (s *Session) ResolveField() (ring.Field, error) {
	switch s.Field {
	case "F32":
		return ring.F32, nil
	case "F64":
		return ring.F64, nil
	case "F128":
		return ring.F128, nil
	default:
		return 0, fmt.Errorf("config: unknown field %q (want F32, F64 or F128)", s.Field)
	}
}

// PRSSRoot decodes the cluster root secret the PRG service derives
// pairwise PRSS keys from.
func (s *Session) PRSSRoot() ([]byte, error) {
	b, err := hex.DecodeString(s.PRSSRootHex)
	if err != nil {
		return nil, fmt.Errorf("config: prss_root is not valid hex: %w", err)
	}
	if len(b) < 16 {
		return nil, fmt.Errorf("config: prss_root must be at least 16 bytes, got %d", len(b))
	}
	return b, nil
}

// DealerSeed decodes the seed a TrustedDealer Beaver provider derives
// every triple from.
func (s *Session) DealerSeed() ([]byte, error) {
	b, err := hex.DecodeString(s.DealerSeedHex)
	if err != nil {
		return nil, fmt.Errorf("config: dealer_seed is not valid hex: %w", err)
	}
	if len(b) < 16 {
		return nil, fmt.Errorf("config: dealer_seed must be at least 16 bytes, got %d", len(b))
	}
	return b, nil
}
