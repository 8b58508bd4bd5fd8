package container

import (
	"fmt"
	"testing"
	"time"

	"github.com/ory/dockertest/v3"
	"github.com/ory/dockertest/v3/docker"
	"github.com/stretchr/testify/require"

	"github.com/stakewatch/lido-ledger-indexer/testutil"
)

const (
	MongoUsername  = "user"
	MongoPassword  = "password"
	MongoDatabase  = "e2e"
	RabbitUser     = "user"
	RabbitPassword = "password"
)

// Manager runs the docker containers the indexer depends on.
type Manager struct {
	cfg       ImageConfig
	pool      *dockertest.Pool
	resources map[string]*dockertest.Resource
}

func NewManager(t *testing.T) (*Manager, error) {
	pool, err := dockertest.NewPool("")
	if err != nil {
		return nil, err
	}
	pool.MaxWait = 2 * time.Minute

	m := &Manager{
		cfg:       NewImageConfig(),
		pool:      pool,
		resources: make(map[string]*dockertest.Resource),
	}
	t.Cleanup(func() {
		require.NoError(t, m.ClearResources())
	})
	return m, nil
}

func (m *Manager) run(name string, opts *dockertest.RunOptions) (*dockertest.Resource, error) {
	// there can be only 1 container with the same name
	opts.Name = fmt.Sprintf("%s-e2e-%s", name, testutil.RandomAlphaNum(4))
	resource, err := m.pool.RunWithOptions(opts, func(config *docker.HostConfig) {
		config.AutoRemove = true
		config.RestartPolicy = docker.RestartPolicy{Name: "no"}
	})
	if err != nil {
		return nil, err
	}
	m.resources[name] = resource
	return resource, nil
}

// RunMongoResource starts mongo and returns its host address.
func (m *Manager) RunMongoResource() (string, error) {
	resource, err := m.run("mongo", &dockertest.RunOptions{
		Repository: m.cfg.MongoRepository,
		Tag:        m.cfg.MongoVersion,
		Env: []string{
			"MONGO_INITDB_ROOT_USERNAME=" + MongoUsername,
			"MONGO_INITDB_ROOT_PASSWORD=" + MongoPassword,
			"MONGO_INITDB_DATABASE=" + MongoDatabase,
		},
	})
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("mongodb://localhost:%s/", resource.GetPort("27017/tcp")), nil
}

// RunRabbitResource starts rabbitmq and returns its host:port.
func (m *Manager) RunRabbitResource() (string, error) {
	resource, err := m.run("rabbitmq", &dockertest.RunOptions{
		Repository: m.cfg.RabbitRepository,
		Tag:        m.cfg.RabbitVersion,
		Env: []string{
			"RABBITMQ_DEFAULT_USER=" + RabbitUser,
			"RABBITMQ_DEFAULT_PASS=" + RabbitPassword,
		},
	})
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("localhost:%s", resource.GetPort("5672/tcp")), nil
}

// Retry polls op until it succeeds or the pool gives up.
func (m *Manager) Retry(op func() error) error {
	return m.pool.Retry(op)
}

// ClearResources removes all started containers.
func (m *Manager) ClearResources() error {
	for name, resource := range m.resources {
		if err := m.pool.Purge(resource); err != nil {
			return fmt.Errorf("failed to purge %s: %w", name, err)
		}
		delete(m.resources, name)
	}
	return nil
}
