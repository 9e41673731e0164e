package strategy

import "testing"

type fakeVersionedStrategy struct {
	Strategy
	version string
	name    string
}

func (f fakeVersionedStrategy) Name() string          { return f.name }
func (f fakeVersionedStrategy) SchemaVersion() string { return f.version }

func TestCheckCompatible(t *testing.T) {
	cases := []struct {
		version string
		wantErr bool
	}{
		{"1.0.0", false},
		{"0.9.0", true},
		{"2.0.0", true},
		{"not-a-version", true},
	}
	for _, c := range cases {
		err := CheckCompatible(fakeVersionedStrategy{name: "t", version: c.version})
		if c.wantErr && err == nil {
			t.Errorf("version %s: expected error, got nil", c.version)
		}
		if !c.wantErr && err != nil {
			t.Errorf("version %s: unexpected error %v", c.version, err)
		}
	}
}
