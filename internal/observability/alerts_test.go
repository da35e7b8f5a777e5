package observability

import (
	"os"
	"path/filepath"
	"testing"

	"gopkg.in/yaml.v3"
)

type alertRule struct {
	Alert       string            `yaml:"alert"`
	Expr        string            `yaml:"expr"`
	For         string            `yaml:"for"`
	Labels      map[string]string `yaml:"labels"`
	Annotations map[string]string `yaml:"annotations"`
}

type alertGroup struct {
	Name  string      `yaml:"name"`
	Rules []alertRule `yaml:"rules"`
}

type alertSpec struct {
	Groups []alertGroup `yaml:"groups"`
}

func TestStreamingAlertRules(t *testing.T) {
	path := filepath.Join("..", "..", "deploy", "prometheus", "alerts", "streaming.yml")
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to read alert file: %v", err)
	}

	var spec alertSpec
	if err := yaml.Unmarshal(data, &spec); err != nil {
		t.Fatalf("failed to unmarshal alert file: %v", err)
	}

	var streamingGroup *alertGroup
	for i := range spec.Groups {
		if spec.Groups[i].Name == "streaming" {
			streamingGroup = &spec.Groups[i]
			break
		}
	}
	if streamingGroup == nil {
		t.Fatal("streaming alert group missing")
	}

	expected := map[string]string{
		"HighErrorRate":      "critical",
		"HighFrameDropRate":  "warning",
		"NoConnectedViewers": "info",
	}
	for _, rule := range streamingGroup.Rules {
		severity, ok := expected[rule.Alert]
		if !ok {
			continue
		}
		delete(expected, rule.Alert)
		if rule.Labels["severity"] != severity {
			t.Fatalf("alert %s: expected severity %q, got %q", rule.Alert, severity, rule.Labels["severity"])
		}
		if rule.Expr == "" {
			t.Fatalf("alert %s: empty expr", rule.Alert)
		}
		if rule.Annotations["runbook"] == "" {
			t.Fatalf("alert %s: missing runbook annotation", rule.Alert)
		}
	}
	if len(expected) != 0 {
		t.Fatalf("alerts missing from group: %v", expected)
	}
}
