package ejector

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"

	"go.trai.ch/largo/internal/core/domain"
	"go.trai.ch/zerr"
	"gopkg.in/yaml.v3"
)

const stateSchema = 1

// ejectState records which fingerprint each vendored package was copied at,
// so a re-run can skip packages that are already current. A corrupt or
// missing state file degrades to a full copy, never to an error.
type ejectState struct {
	Schema   int               `yaml:"schema"`
	Vendored map[string]string `yaml:"vendored"`
}

func readState(root string) (*ejectState, error) {
	empty := &ejectState{Schema: stateSchema, Vendored: map[string]string{}}

	data, err := os.ReadFile(filepath.Join(root, domain.EjectStateFileName))
	if errors.Is(err, fs.ErrNotExist) {
		return empty, nil
	}
	if err != nil {
		return nil, zerr.Wrap(err, "failed to read eject state")
	}

	var state ejectState
	if err := yaml.Unmarshal(data, &state); err != nil || state.Schema != stateSchema {
		return empty, nil
	}
	if state.Vendored == nil {
		state.Vendored = map[string]string{}
	}
	return &state, nil
}

func (s *ejectState) current(name string, fp domain.Fingerprint) bool {
	return s.Vendored[name] == string(fp)
}

func (s *ejectState) record(name string, fp domain.Fingerprint) {
	s.Vendored[name] = string(fp)
}

func (s *ejectState) write(root string) error {
	data, err := yaml.Marshal(s)
	if err != nil {
		return zerr.Wrap(err, "failed to encode eject state")
	}
	path := filepath.Join(root, domain.EjectStateFileName)
	if err := os.WriteFile(path, data, domain.FilePerm); err != nil {
		return zerr.Wrap(err, "failed to write eject state")
	}
	return nil
}
