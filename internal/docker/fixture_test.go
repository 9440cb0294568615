package docker

import (
	"github.com/shinji-kodama/launcher/internal/env"
	"github.com/shinji-kodama/launcher/internal/port"
)

// testDefinition returns a small kafka environment: zookeeper and kafka
// from the kafka module, plus a kafka-ssl module that only adds a port.
func testDefinition(hostKafka port.HostPort) *env.Definition {
	return &env.Definition{
		Environment: "singlenode-kafka-ssl",
		Config:      "default",
		Binder:      "fixed",
		Modules: []env.AppliedModule{
			{
				Name: "kafka",
				Containers: []env.Container{
					{Name: "zookeeper", Image: "confluentinc/cp-zookeeper:7.3.1", Module: "kafka",
						Env: map[string]string{"ZOOKEEPER_CLIENT_PORT": "2181"}},
					{Name: "kafka", Image: "confluentinc/cp-kafka:7.3.1", Module: "kafka",
						Env:     map[string]string{"B": "2", "A": "1"},
						Command: []string{"/etc/confluent/docker/run"},
						Mounts:  map[string]string{"/tmp/secrets": "/etc/kafka/secrets", "/tmp/a": "/a"}},
				},
			},
			{Name: "kafka-ssl", Requires: []string{"kafka"}},
			{
				Name:     "client",
				Requires: []string{"kafka-ssl"},
				Containers: []env.Container{
					{Name: "client", Image: "busybox", Module: "client"},
				},
			},
		},
		Ports: []env.PortBinding{
			{Module: "kafka", Container: "zookeeper", ContainerPort: 2181, Host: port.Ephemeral},
			{Module: "kafka", Container: "kafka", ContainerPort: 9092, Host: hostKafka},
			{Module: "kafka-ssl", Container: "kafka", ContainerPort: 9093, Host: port.HostPort{Port: 9093}},
		},
		Settings: map[string]string{"kafka.nodes": "kafka:9093"},
	}
}
