package config

import (
	"context"
	"fmt"

	"github.com/de-tools/approval-atlas/pkg/models/domain"
	"github.com/snowflakedb/gosnowflake"
	"gopkg.in/ini.v1"
)

const defaultTable = "segment_stats"

// Registry lists the named segment sources of a profiles file.
type Registry interface {
	GetProfiles(ctx context.Context) ([]domain.SourceProfile, error)
	GetProfile(ctx context.Context, name string) (domain.SourceProfile, error)
}

type iniRegistry struct {
	cfg *ini.File
}

// NewRegistry loads an ini profiles file. Every non-empty section is a source:
//
//	[lakehouse]
//	type      = databricks
//	host      = adb-123.azuredatabricks.net
//	token     = dapi...
//	http_path = /sql/1.0/warehouses/abc
//	table     = payments.analytics.segment_stats
func NewRegistry(path string) (Registry, error) {
	cfg, err := ini.Load(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load profiles: %w", err)
	}
	return &iniRegistry{cfg: cfg}, nil
}

func (r *iniRegistry) GetProfiles(ctx context.Context) ([]domain.SourceProfile, error) {
	var profiles []domain.SourceProfile
	for _, section := range r.cfg.Sections() {
		if len(section.Keys()) == 0 {
			continue
		}
		profile, err := parseSection(section)
		if err != nil {
			return nil, err
		}
		profiles = append(profiles, profile)
	}
	return profiles, nil
}

func (r *iniRegistry) GetProfile(_ context.Context, name string) (domain.SourceProfile, error) {
	section, err := r.cfg.GetSection(name)
	if err != nil {
		return domain.SourceProfile{}, fmt.Errorf("profile %s not found", name)
	}
	return parseSection(section)
}

func parseSection(section *ini.Section) (domain.SourceProfile, error) {
	profile := domain.SourceProfile{
		Name:  section.Name(),
		Type:  domain.SourceType(section.Key("type").String()),
		Table: section.Key("table").MustString(defaultTable),
	}

	switch profile.Type {
	case domain.SourceTypeDuckDB:
		profile.DSN = section.Key("path").String()
	case domain.SourceTypeSnowflake:
		dsn, err := gosnowflake.DSN(&gosnowflake.Config{
			Account:   section.Key("account").String(),
			User:      section.Key("user").String(),
			Password:  section.Key("password").String(),
			Database:  section.Key("database").String(),
			Schema:    section.Key("schema").String(),
			Warehouse: section.Key("warehouse").String(),
			Role:      section.Key("role").String(),
		})
		if err != nil {
			return domain.SourceProfile{}, fmt.Errorf("profile %s: failed to create DSN: %w", profile.Name, err)
		}
		profile.DSN = dsn
	case domain.SourceTypeDatabricks:
		profile.DSN = fmt.Sprintf("token:%s@%s%s",
			section.Key("token").String(),
			section.Key("host").String(),
			section.Key("http_path").String(),
		)
	default:
		return domain.SourceProfile{}, fmt.Errorf("profile %s: unsupported source type %q", profile.Name, profile.Type)
	}

	if profile.DSN == "" {
		return domain.SourceProfile{}, fmt.Errorf("profile %s: missing connection settings", profile.Name)
	}
	return profile, nil
}
