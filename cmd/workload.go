package cmd

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/coresched/coresched/sched"
)

// workloadFile is the YAML shape of a workload description: a named list of
// process archetypes.
type workloadFile struct {
	Archetypes []sched.Archetype `yaml:"archetypes"`
}

// LoadWorkload reads a YAML archetype list for the run command.
func LoadWorkload(path string) ([]sched.Archetype, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading workload file: %w", err)
	}
	var wf workloadFile
	if err := yaml.Unmarshal(data, &wf); err != nil {
		return nil, fmt.Errorf("parsing workload file: %w", err)
	}
	if len(wf.Archetypes) == 0 {
		return nil, fmt.Errorf("workload file %s declares no archetypes", path)
	}
	for _, a := range wf.Archetypes {
		if a.Name == "" {
			return nil, fmt.Errorf("workload file %s: archetype with empty name", path)
		}
		if a.Class != "" && !sched.IsValidClass(string(a.Class)) {
			return nil, fmt.Errorf("workload file %s: archetype %q has unknown class %q", path, a.Name, a.Class)
		}
		if err := a.Sandbox.Validate(); err != nil {
			return nil, fmt.Errorf("workload file %s: archetype %q: %w", path, a.Name, err)
		}
	}
	return wf.Archetypes, nil
}
