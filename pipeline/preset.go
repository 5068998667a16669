package pipeline

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/golang/glog"
	"github.com/pelletier/go-toml/v2"
	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"

	"sketch-filters/filters"
)

// Preset is a saved filter setup. Params holds partial parameter tables keyed by filter
// id; Mask tunes the shared local mask.
type Preset struct {
	Main   string                    `toml:"main"`
	Before []string                  `toml:"before"`
	After  []string                  `toml:"after"`
	Mask   map[string]any            `toml:"mask,omitempty"`
	Params map[string]map[string]any `toml:"params,omitempty"`
}

var ErrUnknownFilter = errors.New("unknown filter")

func ParsePreset(r io.Reader) (Preset, error) {
	var p Preset
	if err := toml.NewDecoder(r).Decode(&p); err != nil {
		return Preset{}, fmt.Errorf("parse preset: %w", err)
	}
	return p, nil
}

func LoadPreset(path string) (Preset, error) {
	file, err := os.Open(path)
	if err != nil {
		return Preset{}, err
	}
	defer file.Close()
	p, err := ParsePreset(file)
	if err != nil {
		return Preset{}, fmt.Errorf("%s: %w", path, err)
	}
	return p, nil
}

func (p Preset) Write(w io.Writer) error {
	enc := toml.NewEncoder(w)
	enc.SetIndentTables(true)
	return enc.Encode(p)
}

// tableDecoder decodes a TOML table into a parameter struct by round tripping it
// through the encoder.
func tableDecoder(table map[string]any) func(v any) error {
	return func(v any) error {
		data, err := toml.Marshal(table)
		if err != nil {
			return err
		}
		return toml.Unmarshal(data, v)
	}
}

// ApplyPreset replaces the activation state and tunes the listed filters. Every filter id
// and parameter table is checked before anything changes.
func (s *Sketch) ApplyPreset(p Preset) error {
	if !s.started {
		return errors.New("apply preset: no image loaded")
	}
	var errs []error
	check := func(id string) {
		if _, ok := s.stack.Get(id); !ok {
			errs = append(errs, fmt.Errorf("%w %q", ErrUnknownFilter, id))
		}
	}
	if p.Main != "" {
		check(p.Main)
	}
	for _, id := range append(slices.Clone(p.Before), p.After...) {
		check(id)
	}
	for _, id := range maps.Keys(p.Params) {
		check(id)
	}
	if len(errs) > 0 {
		return errors.Join(errs...)
	}

	if p.Mask != nil {
		if err := s.mask.CheckTune(tableDecoder(p.Mask)); err != nil {
			errs = append(errs, fmt.Errorf("mask: %w", err))
		}
	}
	ids := maps.Keys(p.Params)
	slices.Sort(ids)
	for _, id := range ids {
		cmd, _ := s.stack.Get(id)
		if tuner, ok := cmd.(filters.Tuner); ok {
			if err := tuner.CheckTune(tableDecoder(p.Params[id])); err != nil {
				errs = append(errs, fmt.Errorf("params %s: %w", id, err))
			}
		}
	}
	if len(errs) > 0 {
		return errors.Join(errs...)
	}

	if p.Main != "" {
		s.main = p.Main
	}
	s.stack.Clear()
	for _, id := range p.Before {
		s.stack.Activate(id, filters.Before)
	}
	for _, id := range p.After {
		s.stack.Activate(id, filters.After)
	}

	if p.Mask != nil {
		if err := s.mask.Tune(tableDecoder(p.Mask)); err != nil {
			return fmt.Errorf("mask: %w", err)
		}
	}
	for _, id := range ids {
		cmd, _ := s.stack.Get(id)
		tuner, ok := cmd.(filters.Tuner)
		if !ok {
			glog.Warningf("filter %s has no parameters", id)
			continue
		}
		if err := tuner.Tune(tableDecoder(p.Params[id])); err != nil {
			return fmt.Errorf("params %s: %w", id, err)
		}
	}
	glog.V(1).Infof("preset applied: main %s, %d before, %d after", s.main, len(p.Before), len(p.After))
	return nil
}

// CurrentPreset captures the activation state and every filter's parameters.
func (s *Sketch) CurrentPreset() (Preset, error) {
	p := Preset{Main: s.main, Params: map[string]map[string]any{}}
	for _, cmd := range s.stack.ActiveBefore() {
		p.Before = append(p.Before, cmd.ID())
	}
	for _, cmd := range s.stack.ActiveAfter() {
		p.After = append(p.After, cmd.ID())
	}
	var err error
	if p.Mask, err = toTable(s.mask.ParameterValues()); err != nil {
		return Preset{}, err
	}
	for _, cmd := range s.stack.Commands() {
		editor, ok := cmd.(filters.Editor)
		if !ok {
			continue
		}
		if p.Params[cmd.ID()], err = toTable(editor.ParameterValues()); err != nil {
			return Preset{}, fmt.Errorf("params %s: %w", cmd.ID(), err)
		}
	}
	return p, nil
}

func toTable(v any) (map[string]any, error) {
	data, err := toml.Marshal(v)
	if err != nil {
		return nil, err
	}
	table := map[string]any{}
	return table, toml.Unmarshal(data, &table)
}
