package service

import (
	"context"
	"fmt"

	"github.com/ZebulonRouseFrantzich/gearbox/internal/catalog"
	"github.com/ZebulonRouseFrantzich/gearbox/internal/console"
	"github.com/ZebulonRouseFrantzich/gearbox/internal/envstate"
)

// EnvStore persists the current environment name.
type EnvStore interface {
	Current(fallback func() (string, error)) (string, error)
	Write(name string) error
}

// EnvService lists and switches environments.
type EnvService struct {
	envs       *catalog.Registry[*catalog.Environment]
	store      EnvStore
	defaultEnv catalog.DefaultEnvFunc
	console    console.Console
	logger     Logger
}

// NewEnvService creates an environment service. defaultEnv may be nil.
func NewEnvService(
	envs *catalog.Registry[*catalog.Environment],
	store EnvStore,
	defaultEnv catalog.DefaultEnvFunc,
	con console.Console,
	logger Logger,
) *EnvService {
	if logger == nil {
		logger = noopLogger{}
	}
	return &EnvService{
		envs:       envs,
		store:      store,
		defaultEnv: defaultEnv,
		console:    con,
		logger:     logger,
	}
}

// EnvStatus is one row of the environment listing.
type EnvStatus struct {
	Name    string   `json:"name"`
	Tags    []string `json:"tags"`
	Current bool     `json:"current"`
}

// List returns all environments in catalog order, marking the current one.
func (s *EnvService) List(ctx context.Context) ([]EnvStatus, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	current, err := s.currentEnv()
	if err != nil {
		return nil, err
	}

	all := s.envs.All()
	out := make([]EnvStatus, len(all))
	for i, e := range all {
		out[i] = EnvStatus{
			Name:    e.Name,
			Tags:    append([]string{}, e.Tags...),
			Current: e.Equal(current),
		}
	}
	return out, nil
}

// Current returns the current environment name, or envstate.None.
func (s *EnvService) Current(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	return s.currentName()
}

// Switch makes the environment matching name current.
func (s *EnvService) Switch(ctx context.Context, name string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	matches, err := s.envs.ByName(name)
	if err != nil {
		return err
	}
	switch len(matches) {
	case 0:
		return fmt.Errorf("%s is not a valid environment", name)
	case 1:
	default:
		return fmt.Errorf("ambiguous environment %s matches %d environments", name, len(matches))
	}
	target := matches[0]

	oldName, err := s.currentName()
	if err != nil {
		return err
	}
	old, _ := s.envs.Get(oldName)
	if target.Equal(old) {
		s.console.Info(target.Name + " is already the current environment")
		return nil
	}

	if err := s.store.Write(target.Name); err != nil {
		s.logger.Error("write env marker", "env", target.Name, "error", err)
		return fmt.Errorf("cannot switch to environment %s: %w", target.Name, err)
	}

	newName, err := s.currentName()
	if err != nil || newName != target.Name {
		return fmt.Errorf("cannot switch to environment %s", target.Name)
	}

	s.console.Print(fmt.Sprintf("Switched to environment %s from %s", s.console.Good(target.Name), oldName))
	return nil
}

func (s *EnvService) currentName() (string, error) {
	var fallback func() (string, error)
	if s.defaultEnv != nil {
		fallback = s.defaultEnv
	}
	name, err := s.store.Current(fallback)
	if err != nil {
		return "", fmt.Errorf("read current environment: %w", err)
	}
	return name, nil
}

func (s *EnvService) currentEnv() (*catalog.Environment, error) {
	name, err := s.currentName()
	if err != nil {
		return nil, err
	}
	env, _ := s.envs.Get(name)
	return env, nil
}

var _ EnvStore = (*envstate.Store)(nil)
