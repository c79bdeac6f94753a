package cli

import "testing"

// The binary delegates to Execute, so every operator command must be
// registered on the root command at init time.
func TestRootCommandWiring(t *testing.T) {
	want := map[string]bool{
		"status":        false,
		"reset-breaker": false,
		"audit":         false,
	}

	for _, cmd := range rootCmd.Commands() {
		if _, ok := want[cmd.Name()]; ok {
			want[cmd.Name()] = true
		}
	}
	for name, found := range want {
		if !found {
			t.Errorf("subcommand %q not registered on root", name)
		}
	}

	if rootCmd.PersistentFlags().Lookup("config") == nil {
		t.Error("persistent flag --config missing")
	}
	if rootCmd.PersistentFlags().Lookup("debug") == nil {
		t.Error("persistent flag --debug missing")
	}
	if rootCmd.Run == nil {
		t.Error("root command should run the bridge")
	}
}
