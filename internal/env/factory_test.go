package env

import (
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"

	"github.com/shinji-kodama/launcher/internal/envconfig"
	"github.com/shinji-kodama/launcher/internal/port"
)

// testRegistry builds a small hadoop/kerberos/kafka catalog.
func testRegistry() Registry {
	hadoop := &Module{
		Name:  "hadoop",
		Ports: []ExposedPort{{Container: "hadoop-master", Port: 9870}, {Container: "hadoop-master", Port: 8088}},
		Apply: func(b *Builder) error {
			c, err := b.AddContainer("hadoop-master", b.SettingOr("hadoop.image", "hadoop:latest"))
			if err != nil {
				return err
			}
			c.WithEnv("HDFS_PORT", b.Setting("hdfs.port"))
			b.Set("hadoop.enabled", "true")
			return nil
		},
	}
	kerberos := &Module{
		Name:     "hadoop-kerberos",
		Requires: []*Module{hadoop},
		Apply: func(b *Builder) error {
			c, ok := b.Container("hadoop-master")
			if !ok {
				return errors.New("hadoop-master missing")
			}
			c.WithEnv("KERBEROS", "true")
			return nil
		},
	}
	kafka := &Module{
		Name:  "kafka",
		Ports: []ExposedPort{{Container: "kafka", Port: 9092}},
		Apply: func(b *Builder) error {
			hp, _ := b.HostPort(9092)
			c, err := b.AddContainer("kafka", "kafka:7")
			if err != nil {
				return err
			}
			c.WithEnv("ADVERTISED_PORT", hp.String())
			return nil
		},
	}

	return Registry{
		"singlenode-kerberos": Modules(kerberos),
		"singlenode-kafka":    Modules(hadoop, kafka),
	}
}

func testConfig() envconfig.Resolved {
	return envconfig.Resolved{
		Name:   "default",
		Chain:  []string{"default"},
		Values: map[string]string{"hadoop.image": "hdp3:1", "hdfs.port": "9000"},
	}
}

func TestCreate_ComposesInOrder(t *testing.T) {
	f := NewFactory(testRegistry())

	def, err := f.Create("singlenode-kerberos", testConfig(), port.Fixed{})
	require.NoError(t, err)

	assert.Equal(t, "singlenode-kerberos", def.Environment)
	assert.Equal(t, "default", def.Config)
	assert.Equal(t, "fixed", def.Binder)
	assert.Equal(t, []string{"hadoop", "hadoop-kerberos"}, def.ModuleNames())

	kerb, ok := def.Module("hadoop-kerberos")
	require.True(t, ok)
	assert.Equal(t, []string{"hadoop"}, kerb.Requires)
	assert.Empty(t, kerb.Containers)

	containers := def.Containers()
	require.Len(t, containers, 1)
	assert.Equal(t, "hdp3:1", containers[0].Image)
	assert.Equal(t, "hadoop", containers[0].Module)
	assert.Equal(t, map[string]string{"HDFS_PORT": "9000", "KERBEROS": "true"}, containers[0].Env)

	assert.Equal(t, "true", def.Settings["hadoop.enabled"])
	assert.Equal(t, "hdp3:1", def.Settings["hadoop.image"])
	assert.Equal(t, map[int]port.HostPort{
		9870: {Port: 9870},
		8088: {Port: 8088},
	}, def.PortMap())
}

func TestCreate_Binders(t *testing.T) {
	shifting, err := port.NewShifting(1000)
	require.NoError(t, err)

	tests := []struct {
		name   string
		binder port.Binder
		want   port.HostPort
		env    string
	}{
		{"default", port.Default{}, port.Ephemeral, "ephemeral"},
		{"fixed", port.Fixed{}, port.HostPort{Port: 9092}, "9092"},
		{"shifting", shifting, port.HostPort{Port: 10092}, "10092"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			def, err := NewFactory(testRegistry()).Create("singlenode-kafka", testConfig(), tt.binder)
			require.NoError(t, err)

			assert.Equal(t, tt.want, def.PortMap()[9092])
			bindings := def.ContainerPorts("kafka")
			require.Len(t, bindings, 1)
			assert.Equal(t, "kafka", bindings[0].Module)

			c := def.Containers()[1]
			assert.Equal(t, tt.env, c.Env["ADVERTISED_PORT"])
		})
	}
}

func TestCreate_UnknownEnvironment(t *testing.T) {
	def, err := NewFactory(testRegistry()).Create("nope", testConfig(), port.Default{})
	require.ErrorIs(t, err, ErrUnknownEnvironment)
	assert.Nil(t, def)
}

func TestFactory_Modules(t *testing.T) {
	f := NewFactory(testRegistry())

	modules, err := f.Modules("singlenode-kerberos")
	require.NoError(t, err)
	names := make([]string, 0, len(modules))
	for _, m := range modules {
		names = append(names, m.Name)
	}
	assert.Equal(t, []string{"hadoop", "hadoop-kerberos"}, names)

	_, err = f.Modules("nope")
	assert.ErrorIs(t, err, ErrUnknownEnvironment)
	assert.Equal(t, []string{"singlenode-kafka", "singlenode-kerberos"}, f.Names())
}

func TestCreate_DuplicateModule(t *testing.T) {
	reg := Registry{
		"dup": Modules(
			&Module{Name: "kafka", Apply: func(b *Builder) error { return nil }},
			&Module{Name: "kafka", Apply: func(b *Builder) error { return nil }},
		),
	}

	def, err := NewFactory(reg).Create("dup", testConfig(), port.Default{})
	require.ErrorIs(t, err, ErrDuplicateModule)
	assert.Nil(t, def)
}

func TestCreate_ApplyFailure(t *testing.T) {
	cause := errors.New("keytab missing")
	applied := 0
	first := &Module{Name: "first", Apply: func(b *Builder) error {
		applied++
		return nil
	}}
	broken := &Module{Name: "broken", Requires: []*Module{first}, Apply: func(b *Builder) error {
		return cause
	}}
	never := &Module{Name: "never", Requires: []*Module{broken}, Apply: func(b *Builder) error {
		applied++
		return nil
	}}

	def, err := NewFactory(Registry{"e": Modules(never)}).Create("e", testConfig(), port.Default{})
	require.Error(t, err)
	assert.Nil(t, def)
	assert.Equal(t, 1, applied)

	assert.ErrorIs(t, err, ErrModuleApplicationFailed)
	assert.ErrorIs(t, err, cause)

	var modErr *ModuleError
	require.ErrorAs(t, err, &modErr)
	assert.Equal(t, "broken", modErr.Module)
	assert.Equal(t, `module application failed: module "broken": keytab missing`, err.Error())
}

func TestCreate_DuplicateContainer(t *testing.T) {
	a := &Module{Name: "a", Apply: func(b *Builder) error {
		_, err := b.AddContainer("db", "postgres")
		return err
	}}
	b := &Module{Name: "b", Apply: func(b *Builder) error {
		_, err := b.AddContainer("db", "mysql")
		return err
	}}

	_, err := NewFactory(Registry{"e": Modules(a, b)}).Create("e", testConfig(), port.Default{})
	require.ErrorIs(t, err, ErrDuplicateContainer)

	var modErr *ModuleError
	require.ErrorAs(t, err, &modErr)
	assert.Equal(t, "b", modErr.Module)
}

func TestCreate_PortOnUnknownContainer(t *testing.T) {
	m := &Module{Name: "selenium", Ports: []ExposedPort{{Container: "chrome", Port: 4444}}}

	_, err := NewFactory(Registry{"e": Modules(m)}).Create("e", testConfig(), port.Default{})
	require.ErrorIs(t, err, ErrUnknownContainer)
	assert.ErrorIs(t, err, ErrModuleApplicationFailed)
}

func TestCreate_NilBinder(t *testing.T) {
	_, err := NewFactory(testRegistry()).Create("singlenode-kafka", testConfig(), nil)
	require.ErrorIs(t, err, port.ErrInvalidOptions)
}

// TestCreate_FixedCollisionLastWins documents that the fixed binder does not
// reject two modules publishing the same container port.
func TestCreate_FixedCollisionLastWins(t *testing.T) {
	a := &Module{Name: "a", Ports: []ExposedPort{{Container: "ca", Port: 4444}}, Apply: func(b *Builder) error {
		_, err := b.AddContainer("ca", "hydra")
		return err
	}}
	b := &Module{Name: "b", Ports: []ExposedPort{{Container: "cb", Port: 4444}}, Apply: func(b *Builder) error {
		_, err := b.AddContainer("cb", "selenium")
		return err
	}}

	def, err := NewFactory(Registry{"e": Modules(a, b)}).Create("e", testConfig(), port.Fixed{})
	require.NoError(t, err)

	require.Len(t, def.Ports, 2)
	assert.Equal(t, "b", def.Ports[1].Module)
	assert.Equal(t, map[int]port.HostPort{4444: {Port: 4444}}, def.PortMap())
}

func TestCreate_DoesNotMutateConfig(t *testing.T) {
	cfg := testConfig()
	_, err := NewFactory(testRegistry()).Create("singlenode-kerberos", cfg, port.Default{})
	require.NoError(t, err)

	_, ok := cfg.Values["hadoop.enabled"]
	assert.False(t, ok)
}

func TestCreate_Deterministic(t *testing.T) {
	f := NewFactory(testRegistry())
	shifting, err := port.NewShifting(10)
	require.NoError(t, err)

	var first []byte
	for i := 0; i < 10; i++ {
		def, err := f.Create("singlenode-kafka", testConfig(), shifting)
		require.NoError(t, err)
		out, err := json.Marshal(def)
		require.NoError(t, err)
		if first == nil {
			first = out
			continue
		}
		assert.Equal(t, string(first), string(out))
	}
}

// TestCreate_Concurrent composes environments from many goroutines against
// one shared registry.
func TestCreate_Concurrent(t *testing.T) {
	f := NewFactory(testRegistry())

	var g errgroup.Group
	results := make([]*Definition, 16)
	for i := range results {
		g.Go(func() error {
			name := "singlenode-kafka"
			if i%2 == 0 {
				name = "singlenode-kerberos"
			}
			def, err := f.Create(name, testConfig(), port.Fixed{})
			if err != nil {
				return fmt.Errorf("compose %d: %w", i, err)
			}
			results[i] = def
			return nil
		})
	}
	require.NoError(t, g.Wait())

	for i, def := range results {
		if i%2 == 0 {
			assert.Equal(t, []string{"hadoop", "hadoop-kerberos"}, def.ModuleNames())
		} else {
			assert.Equal(t, []string{"hadoop", "kafka"}, def.ModuleNames())
		}
	}
}

func TestDefinition_IsSnapshot(t *testing.T) {
	var leaked *Container
	m := &Module{Name: "m", Apply: func(b *Builder) error {
		c, err := b.AddContainer("c", "img")
		leaked = c
		return err
	}}

	def, err := NewFactory(Registry{"e": Modules(m)}).Create("e", testConfig(), port.Default{})
	require.NoError(t, err)

	leaked.WithEnv("LATE", "1")
	assert.Empty(t, def.Containers()[0].Env)
}

func TestBuilder_Expose(t *testing.T) {
	m := &Module{Name: "standard", Apply: func(b *Builder) error {
		if _, err := b.Expose("presto-master", 5005); err == nil {
			return errors.New("expected unknown container")
		}
		if _, err := b.AddContainer("presto-master", "trino"); err != nil {
			return err
		}
		hp, err := b.Expose("presto-master", 5005)
		if err != nil {
			return err
		}
		b.Set("debug.port", hp.String())
		return nil
	}}

	def, err := NewFactory(Registry{"e": Modules(m)}).Create("e", testConfig(), port.Fixed{})
	require.NoError(t, err)
	assert.Equal(t, "5005", def.Settings["debug.port"])
	assert.Equal(t, []PortBinding{{Module: "standard", Container: "presto-master", ContainerPort: 5005, Host: port.HostPort{Port: 5005}}}, def.Ports)
}
