package catalog

import (
	"fmt"

	"github.com/shinji-kodama/launcher/internal/env"
)

// Environment pairs an environment name with the provider of its modules.
type Environment struct {
	Name     string
	Provider env.Provider
}

type environmentDef struct {
	id      string
	modules []string
}

var builtinEnvironmentDefs = []environmentDef{
	{"EnvSinglenode", []string{"standard", "hadoop"}},
	{"EnvMultinode", []string{"standard-multinode", "hadoop"}},
	{"EnvSinglenodeKerberosHdfs", []string{"standard", "hadoop-kerberos"}},
	{"EnvSinglenodeKerberosKmsHdfs", []string{"standard", "hadoop-kerberos-kms"}},
	{"EnvSinglenodeKafka", []string{"standard", "kafka"}},
	{"EnvSinglenodeKafkaSsl", []string{"standard", "kafka-ssl"}},
	{"EnvMultinodeKafka", []string{"standard-multinode", "kafka"}},
	{"EnvSinglenodeOauth2", []string{"standard", "hydra-identity-provider", "selenium-chrome"}},
}

func builtinEnvironments(modules map[string]*env.Module) ([]Environment, error) {
	out := make([]Environment, 0, len(builtinEnvironmentDefs))
	for _, def := range builtinEnvironmentDefs {
		name := NameFor(def.id)
		selected := make([]*env.Module, 0, len(def.modules))
		for _, m := range def.modules {
			module, ok := modules[m]
			if !ok {
				return nil, fmt.Errorf("environment %q uses undefined module %q", name, m)
			}
			selected = append(selected, module)
		}
		out = append(out, Environment{Name: name, Provider: env.Modules(selected...)})
	}
	return out, nil
}
