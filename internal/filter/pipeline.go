package filter

import (
	"fmt"

	"github.com/robert-malhotra/cosmohdf5/internal/message"
)

// Pipeline decodes chunks written through a filter pipeline message.
type Pipeline struct {
	stages []stage
}

type stage struct {
	// bit is the chunk filter mask bit of the filter's position in the
	// message, which stays put when optional filters are dropped.
	bit uint32
	Filter
}

// NewPipeline builds the decoder for fp. A nil fp gives an empty pipeline.
func NewPipeline(fp *message.FilterPipeline) (*Pipeline, error) {
	p := &Pipeline{}
	if fp == nil {
		return p, nil
	}
	for i, info := range fp.Filters {
		f, err := New(info)
		if err != nil {
			return nil, err
		}
		if f != nil {
			p.stages = append(p.stages, stage{bit: 1 << uint(i), Filter: f})
		}
	}
	return p, nil
}

// Decode undoes the filters last to first, skipping those whose bit is
// set in mask.
func (p *Pipeline) Decode(input []byte, mask uint32) ([]byte, error) {
	data := input
	for i := len(p.stages) - 1; i >= 0; i-- {
		s := p.stages[i]
		if mask&s.bit != 0 {
			continue
		}
		out, err := s.Decode(data)
		if err != nil {
			return nil, fmt.Errorf("filter %d: %w", s.ID(), err)
		}
		data = out
	}
	return data, nil
}

// Empty reports whether chunks pass through unchanged.
func (p *Pipeline) Empty() bool {
	return len(p.stages) == 0
}
