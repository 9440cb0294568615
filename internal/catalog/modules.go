package catalog

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/shinji-kodama/launcher/internal/env"
)

// Container names used by the built-in modules.
const (
	Coordinator    = "presto-master"
	Worker         = "presto-worker"
	HadoopMaster   = "hadoop-master"
	Zookeeper      = "zookeeper"
	Kafka          = "kafka"
	SchemaRegistry = "schema-registry"
	Hydra          = "hydra"
	HydraDB        = "hydra-db"
	Selenium       = "selenium-chrome"
)

// DebugPort is the JDWP port exposed on Trino containers in debug mode.
const DebugPort = 5005

type moduleDef struct {
	id       string
	requires []string
	ports    []env.ExposedPort
	apply    func(b *env.Builder) error
}

// builtinModuleDefs lists modules so that requirements precede dependents.
var builtinModuleDefs = []moduleDef{
	{
		id:    "Standard",
		ports: []env.ExposedPort{{Container: Coordinator, Port: 8080}},
		apply: applyStandard,
	},
	{
		id:       "StandardMultinode",
		requires: []string{"standard"},
		apply:    applyStandardMultinode,
	},
	{
		id: "Hadoop",
		ports: []env.ExposedPort{
			{Container: HadoopMaster, Port: 9870},
			{Container: HadoopMaster, Port: 8088},
			{Container: HadoopMaster, Port: 9083},
			{Container: HadoopMaster, Port: 10000},
		},
		apply: applyHadoop,
	},
	{
		id:       "HadoopKerberos",
		requires: []string{"hadoop"},
		apply:    applyHadoopKerberos,
	},
	{
		id:       "HadoopKerberosKms",
		requires: []string{"hadoop-kerberos"},
		ports:    []env.ExposedPort{{Container: HadoopMaster, Port: 9600}},
		apply:    applyHadoopKerberosKms,
	},
	{
		id: "HydraIdentityProvider",
		ports: []env.ExposedPort{
			{Container: Hydra, Port: 4444},
			{Container: Hydra, Port: 4445},
		},
		apply: applyHydra,
	},
	{
		id: "Kafka",
		ports: []env.ExposedPort{
			{Container: Zookeeper, Port: 2181},
			{Container: Kafka, Port: 9092},
			{Container: SchemaRegistry, Port: 8081},
		},
		apply: applyKafka,
	},
	{
		id:       "KafkaSsl",
		requires: []string{"kafka"},
		ports:    []env.ExposedPort{{Container: Kafka, Port: 9093}},
		apply:    applyKafkaSsl,
	},
	{
		id: "SeleniumChrome",
		ports: []env.ExposedPort{
			{Container: Selenium, Port: 5900},
			{Container: Selenium, Port: 7900},
		},
		apply: applySelenium,
	},
}

// builtinModules builds a fresh set of module singletons. It returns them
// in definition order.
func builtinModules() ([]*env.Module, error) {
	byName := make(map[string]*env.Module, len(builtinModuleDefs))
	out := make([]*env.Module, 0, len(builtinModuleDefs))
	for _, def := range builtinModuleDefs {
		m := &env.Module{
			Name:  NameFor(def.id),
			Ports: append([]env.ExposedPort(nil), def.ports...),
			Apply: def.apply,
		}
		for _, req := range def.requires {
			r, ok := byName[req]
			if !ok {
				return nil, fmt.Errorf("module %q requires %q, which is not defined before it", m.Name, req)
			}
			m.Requires = append(m.Requires, r)
		}
		byName[m.Name] = m
		out = append(out, m)
	}
	return out, nil
}

// image returns the image named by key, tagged with testing.image.tag
// unless it already carries a tag.
func image(b *env.Builder, key string) string {
	img := b.Setting(key)
	tag := b.Setting(KeyImageTag)
	if tag == "" || strings.Contains(img[strings.LastIndex(img, "/")+1:], ":") {
		return img
	}
	return img + ":" + tag
}

func debugEnabled(b *env.Builder) bool {
	enabled, _ := strconv.ParseBool(b.Setting(KeyDebug))
	return enabled
}

func addTrinoNode(b *env.Builder, name, role string) (*env.Container, error) {
	c, err := b.AddContainer(name, image(b, KeyTrinoImage))
	if err != nil {
		return nil, err
	}
	c.WithMount(b.SettingOr(KeyServerPackage, DefaultServerPackage), "/docker/presto-server.tar.gz").
		WithCommand("/docker/presto-product-tests/run-presto.sh").
		WithEnv("NODE_ROLE", role)

	if debugEnabled(b) {
		if _, err := b.Expose(name, DebugPort); err != nil {
			return nil, err
		}
		c.WithEnv("JAVA_TOOL_OPTIONS",
			fmt.Sprintf("-agentlib:jdwp=transport=dt_socket,server=y,suspend=y,address=0.0.0.0:%d", DebugPort))
	}
	return c, nil
}

func applyStandard(b *env.Builder) error {
	if _, err := addTrinoNode(b, Coordinator, "coordinator"); err != nil {
		return err
	}
	hp, _ := b.HostPort(8080)
	b.Set("trino.coordinator.port", hp.String())
	return nil
}

func applyStandardMultinode(b *env.Builder) error {
	coordinator, ok := b.Container(Coordinator)
	if !ok {
		return fmt.Errorf("%s container is missing", Coordinator)
	}
	coordinator.WithEnv("NODE_SCHEDULER_INCLUDE_COORDINATOR", "false")

	if _, err := addTrinoNode(b, Worker, "worker"); err != nil {
		return err
	}
	b.Set("trino.workers", "1")
	return nil
}

func applyHadoop(b *env.Builder) error {
	c, err := b.AddContainer(HadoopMaster, image(b, KeyHadoopImage))
	if err != nil {
		return err
	}
	c.WithEnv("HADOOP_USER_NAME", "hive")
	if v := b.Setting(KeyHiveVersion); v != "" {
		c.WithEnv("HIVE_VERSION", v)
	}
	b.Set("hive.metastore.uri", "thrift://"+HadoopMaster+":9083")
	return nil
}

func applyHadoopKerberos(b *env.Builder) error {
	c, ok := b.Container(HadoopMaster)
	if !ok {
		return fmt.Errorf("%s container is missing", HadoopMaster)
	}
	c.Image = kerberized(c.Image)
	c.WithEnv("KERBEROS_REALM", "LABS.TERADATA.COM").
		WithMount("/tmp/launcher/kerberos", "/etc/trino/conf")
	b.Set("hive.hdfs.authentication.type", "KERBEROS")
	b.Set("hive.metastore.authentication.type", "KERBEROS")
	return nil
}

func applyHadoopKerberosKms(b *env.Builder) error {
	c, ok := b.Container(HadoopMaster)
	if !ok {
		return fmt.Errorf("%s container is missing", HadoopMaster)
	}
	c.WithEnv("HADOOP_KMS_ENABLED", "true")
	hp, _ := b.HostPort(9600)
	b.Set("hadoop.kms.port", hp.String())
	b.Set("hive.hdfs.wire-encryption.enabled", "true")
	return nil
}

// kerberized turns "repo/hdp3.1-hive:80" into "repo/hdp3.1-hive-kerberized:80".
func kerberized(img string) string {
	name, tag, found := strings.Cut(img[strings.LastIndex(img, "/")+1:], ":")
	prefix := img[:strings.LastIndex(img, "/")+1]
	if strings.HasSuffix(name, "-kerberized") {
		return img
	}
	if !found {
		return prefix + name + "-kerberized"
	}
	return prefix + name + "-kerberized:" + tag
}

func applyHydra(b *env.Builder) error {
	db, err := b.AddContainer(HydraDB, "postgres:14.2")
	if err != nil {
		return err
	}
	db.WithEnv("POSTGRES_USER", "hydra").
		WithEnv("POSTGRES_PASSWORD", "mysecretpassword").
		WithEnv("POSTGRES_DB", "hydra")

	hydra, err := b.AddContainer(Hydra, "oryd/hydra:"+b.Setting(KeyHydraVersion))
	if err != nil {
		return err
	}
	public, _ := b.HostPort(4444)
	hydra.WithEnv("DSN", "postgres://hydra:mysecretpassword@"+HydraDB+":5432/hydra?sslmode=disable").
		WithEnv("URLS_SELF_ISSUER", "https://"+Hydra+":4444/").
		WithCommand("serve", "all", "--dangerous-force-http")
	b.Set("oauth2.issuer.port", public.String())
	return nil
}

func applyKafka(b *env.Builder) error {
	version := b.Setting(KeyKafkaVersion)

	zk, err := b.AddContainer(Zookeeper, "confluentinc/cp-zookeeper:"+version)
	if err != nil {
		return err
	}
	zk.WithEnv("ZOOKEEPER_CLIENT_PORT", "2181")

	broker, err := b.AddContainer(Kafka, "confluentinc/cp-kafka:"+version)
	if err != nil {
		return err
	}
	broker.WithEnv("KAFKA_ZOOKEEPER_CONNECT", Zookeeper+":2181").
		WithEnv("KAFKA_ADVERTISED_LISTENERS", "PLAINTEXT://"+Kafka+":9092").
		WithEnv("KAFKA_OFFSETS_TOPIC_REPLICATION_FACTOR", "1")

	registry, err := b.AddContainer(SchemaRegistry, "confluentinc/cp-schema-registry:"+version)
	if err != nil {
		return err
	}
	registry.WithEnv("SCHEMA_REGISTRY_HOST_NAME", SchemaRegistry).
		WithEnv("SCHEMA_REGISTRY_KAFKASTORE_BOOTSTRAP_SERVERS", "PLAINTEXT://"+Kafka+":9092")

	b.Set("kafka.nodes", Kafka+":9092")
	return nil
}

func applyKafkaSsl(b *env.Builder) error {
	broker, ok := b.Container(Kafka)
	if !ok {
		return fmt.Errorf("%s container is missing", Kafka)
	}
	broker.WithEnv("KAFKA_ADVERTISED_LISTENERS", "PLAINTEXT://"+Kafka+":9092,SSL://"+Kafka+":9093").
		WithEnv("KAFKA_SSL_KEYSTORE_FILENAME", "kafka.broker1.keystore").
		WithEnv("KAFKA_SSL_TRUSTSTORE_FILENAME", "kafka.broker1.truststore").
		WithEnv("KAFKA_SSL_CLIENT_AUTH", "required").
		WithMount("/tmp/launcher/kafka-ssl", "/etc/kafka/secrets")

	b.Set("kafka.nodes", Kafka+":9093")
	b.Set("kafka.security-protocol", "SSL")
	return nil
}

func applySelenium(b *env.Builder) error {
	c, err := b.AddContainer(Selenium, "selenium/standalone-chrome:4.8.0")
	if err != nil {
		return err
	}
	c.WithEnv("SE_NODE_MAX_SESSIONS", "1").
		WithMount("/dev/shm", "/dev/shm")
	return nil
}
