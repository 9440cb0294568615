package catalog

import (
	"github.com/shinji-kodama/launcher/internal/envconfig"
)

// Setting keys read by the built-in modules.
const (
	KeyTrinoImage    = "trino.image"
	KeyImageTag      = "testing.image.tag"
	KeyHadoopImage   = "hadoop.image"
	KeyKafkaVersion  = "kafka.version"
	KeyHydraVersion  = "hydra.version"
	KeyHiveVersion   = "hive.version"
	KeyServerPackage = "launcher.server-package"
	KeyDebug         = "launcher.debug"
)

// DefaultServerPackage is mounted when no server package is given, so
// environments can still be listed and described.
const DefaultServerPackage = "dummy.tar.gz"

type configDef struct {
	id     string
	parent string
	values map[string]string
}

var builtinConfigDefs = []configDef{
	{
		id: "ConfigDefault",
		values: map[string]string{
			KeyTrinoImage:   "ghcr.io/trinodb/testing/centos7-oj17",
			KeyImageTag:     "80",
			KeyHadoopImage:  "ghcr.io/trinodb/testing/hdp2.6-hive",
			KeyKafkaVersion: "7.3.1",
			KeyHydraVersion: "v1.10.6",
		},
	},
	{
		id:     "ConfigHdp3",
		parent: "default",
		values: map[string]string{
			KeyHadoopImage: "ghcr.io/trinodb/testing/hdp3.1-hive",
		},
	},
	{
		id:     "ConfigCdh5",
		parent: "default",
		values: map[string]string{
			KeyHadoopImage: "ghcr.io/trinodb/testing/cdh5.15-hive",
		},
	},
	{
		id:     "ConfigApacheHive3",
		parent: "hdp3",
		values: map[string]string{
			KeyHadoopImage: "ghcr.io/trinodb/testing/hive3.1-hive",
			KeyHiveVersion: "3.1.3",
		},
	},
}

func builtinConfigs() []envconfig.Descriptor {
	out := make([]envconfig.Descriptor, 0, len(builtinConfigDefs))
	for _, def := range builtinConfigDefs {
		values := make(map[string]string, len(def.values))
		for k, v := range def.values {
			values[k] = v
		}
		out = append(out, envconfig.Descriptor{
			Name:   NameFor(def.id),
			Parent: def.parent,
			Values: values,
		})
	}
	return out
}
