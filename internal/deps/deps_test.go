package deps

import "testing"

func TestCheckBinariesReportsMissing(t *testing.T) {
	statuses := CheckBinaries([]Requirement{
		{Name: "Nope", Command: "definitely-not-a-binary-xyz"},
		{Name: "Blank", Command: "  "},
	})
	if len(statuses) != 2 {
		t.Fatalf("expected 2 statuses, got %d", len(statuses))
	}
	for _, status := range statuses {
		if status.Available {
			t.Fatalf("%s should be unavailable", status.Name)
		}
		if status.Detail == "" {
			t.Fatalf("%s missing detail", status.Name)
		}
	}
	missing := MissingRequired(statuses)
	if len(missing) != 2 {
		t.Fatalf("MissingRequired = %v", missing)
	}
}

func TestCheckBinariesFindsShell(t *testing.T) {
	statuses := CheckBinaries([]Requirement{{Name: "Shell", Command: "sh"}})
	if !statuses[0].Available {
		t.Fatalf("sh should resolve from PATH: %+v", statuses[0])
	}
	if statuses[0].Command == "sh" {
		t.Fatalf("expected resolved path, got %q", statuses[0].Command)
	}
	if missing := MissingRequired(statuses); missing != nil {
		t.Fatalf("MissingRequired = %v", missing)
	}
}

func TestMissingRequiredSkipsOptional(t *testing.T) {
	statuses := []Status{{Name: "Opt", Optional: true}}
	if missing := MissingRequired(statuses); missing != nil {
		t.Fatalf("optional must not count as missing: %v", missing)
	}
}
