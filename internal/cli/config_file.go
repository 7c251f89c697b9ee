package cli

// ConfigFile holds all options that can be set over the config file
type ConfigFile struct {
	API struct {
		Host     string
		Insecure bool
		// Local reads quarantined tests from `.flakeguard/quarantines.yaml` instead of the API.
		Local bool
	} `yaml:"api"`
	Flags      map[string]any
	Org        string `yaml:"org-url-slug"`
	Repository struct {
		Root string
		URL  string
	}
	Reports struct {
		JUnitPaths     []string `yaml:"junit-paths"`
		CodeownersPath string   `yaml:"codeowners-path"`
	}
	Test struct {
		// Command is split into arguments the way a shell would.
		Command string
	}
	Quarantine struct {
		Disabled   bool
		Variant    string
		JSONOutput string `yaml:"json-output"`
	}
	Output struct {
		Debug bool
	}
}
