package core_test

import (
	"encoding/json"
	"testing"

	"github.com/yurrJC/mercania-wms-sub000/internal/core"
)

func TestParseMediaFormat(t *testing.T) {
	tests := []struct {
		in      string
		want    core.MediaFormat
		wantErr bool
	}{
		{"BOOK", core.FormatBook, false},
		{"book", core.FormatBook, false},
		{"  dvd ", core.FormatDVD, false},
		{"Cd", core.FormatCD, false},
		{"vinyl", "", true},
		{"", "", true},
	}
	for _, tt := range tests {
		got, err := core.ParseMediaFormat(tt.in)
		if tt.wantErr {
			if err == nil {
				t.Errorf("ParseMediaFormat(%q): expected error, got %s", tt.in, got)
			}
			continue
		}
		if err != nil {
			t.Errorf("ParseMediaFormat(%q) failed: %v", tt.in, err)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseMediaFormat(%q) = %s, want %s", tt.in, got, tt.want)
		}
	}
}

func TestValidateDetails(t *testing.T) {
	tests := []struct {
		name    string
		format  core.MediaFormat
		raw     string
		wantErr bool
	}{
		{"book happy path", core.FormatBook, `{"binding":"paperback","pages":320,"edition":"first edition"}`, false},
		{"cd happy path", core.FormatCD, `{"genre":"jazz","discs":2}`, false},
		{"dvd happy path", core.FormatDVD, `{"rating":"PG","runtime_minutes":142,"region":"4"}`, false},
		{"empty payload ok", core.FormatBook, ``, false},
		{"null payload ok", core.FormatCD, `null`, false},
		{"empty object ok", core.FormatDVD, `{}`, false},
		{"unknown field rejected", core.FormatBook, `{"isbn":"9780989999999"}`, true},
		{"wrong variant rejected", core.FormatCD, `{"pages":320}`, true},
		{"wrong type rejected", core.FormatBook, `{"pages":"many"}`, true},
		{"not an object", core.FormatBook, `[1,2,3]`, true},
		{"unknown format", core.MediaFormat("VINYL"), `{}`, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := core.ValidateDetails(tt.format, json.RawMessage(tt.raw))
			if tt.wantErr && err == nil {
				t.Errorf("expected error, got nil")
			}
			if !tt.wantErr && err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		})
	}
}

func TestFormatSchemas(t *testing.T) {
	schemas := core.FormatSchemas()
	for _, f := range core.AllFormats {
		schema, ok := schemas[f]
		if !ok || schema == nil {
			t.Errorf("missing schema for format %s", f)
			continue
		}
		if schema.Properties == nil || schema.Properties.Len() == 0 {
			t.Errorf("schema for %s has no properties", f)
		}
	}
	if _, ok := schemas[core.FormatBook].Properties.Get("pages"); !ok {
		t.Error("book schema must describe the pages field")
	}
}
