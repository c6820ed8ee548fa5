package config

import "testing"

func TestDefaultConfig(t *testing.T) {
	cfg := Default()
	if cfg.StepCap != 5000 {
		t.Errorf("StepCap = %d, want 5000", cfg.StepCap)
	}
	if cfg.ClinitStepCap != 500 {
		t.Errorf("ClinitStepCap = %d, want 500", cfg.ClinitStepCap)
	}
	if cfg.Format != "text" {
		t.Errorf("Format = %q, want %q", cfg.Format, "text")
	}
}

func TestLoadNoPath(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load(\"\"): %v", err)
	}
	if cfg.StepCap != Default().StepCap {
		t.Errorf("Load(\"\") did not fall back to defaults")
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load("/nonexistent/dalivm-config.yaml"); err == nil {
		t.Error("Load of a missing file should return an error")
	}
}

func TestToMockConfig(t *testing.T) {
	cfg := Default()
	cfg.Mock.PackageName = "com.acme.app"
	mc := cfg.ToMockConfig()
	if mc.PackageName != "com.acme.app" {
		t.Errorf("ToMockConfig().PackageName = %q, want %q", mc.PackageName, "com.acme.app")
	}
}
