package appconfig

import "testing"

func TestMergeOverridesOnlySetFields(t *testing.T) {
	base := Default()
	hidden := true
	stored := fileConfig{ShowHidden: &hidden}
	merged := merge(base, stored)
	if !merged.ShowHidden {
		t.Errorf("ShowHidden = false, want true")
	}
	if merged.Theme != base.Theme {
		t.Errorf("Theme = %q, want unchanged %q", merged.Theme, base.Theme)
	}
}
