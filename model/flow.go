/*
 * Copyright 2025 tomoncle.
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package model

import (
	"time"

	"github.com/uptrace/bun"
)

// Flow stage names stored in flow_steps.stage.
const (
	StagePre  = "pre"
	StagePost = "post"
)

type Flow struct {
	bun.BaseModel `bun:"table:flows,alias:fl"`

	ID          string    `bun:"id,pk"`
	Reference   Reference `bun:"embed:reference_"`
	Application string    `bun:"application"`
	Type        string    `bun:"type"`
	Name        string    `bun:"name,notnull"`
	Enabled     bool      `bun:"enabled,notnull"`
	Condition   string    `bun:"condition"`
	Order       int       `bun:"flow_order"`
	CreatedAt   time.Time `bun:"created_at,notnull"`
	UpdatedAt   time.Time `bun:"updated_at,notnull"`

	Pre  []Step `bun:"-"`
	Post []Step `bun:"-"`
}

// Step is one policy executed in a flow stage.
type Step struct {
	Name          string `json:"name"`
	Policy        string `json:"policy"`
	Description   string `json:"description"`
	Enabled       bool   `json:"enabled"`
	Configuration string `json:"configuration"`
	Condition     string `json:"condition"`
}

func (f *Flow) Normalize() {
	f.Pre = nonNilSlice(f.Pre)
	f.Post = nonNilSlice(f.Post)
}

type FlowStep struct {
	bun.BaseModel `bun:"table:flow_steps"`

	FlowID        string `bun:"flow_id,pk"`
	Stage         string `bun:"stage,pk"`
	StageOrder    int    `bun:"stage_order,pk"`
	Name          string `bun:"name"`
	Policy        string `bun:"policy"`
	Description   string `bun:"description"`
	Enabled       bool   `bun:"enabled,notnull"`
	Configuration string `bun:"configuration"`
	Condition     string `bun:"condition"`
}

func (f *Flow) StepRows() []*FlowStep {
	rows := make([]*FlowStep, 0, len(f.Pre)+len(f.Post))
	add := func(stage string, steps []Step) {
		for i, s := range steps {
			rows = append(rows, &FlowStep{
				FlowID:        f.ID,
				Stage:         stage,
				StageOrder:    i,
				Name:          s.Name,
				Policy:        s.Policy,
				Description:   s.Description,
				Enabled:       s.Enabled,
				Configuration: s.Configuration,
				Condition:     s.Condition,
			})
		}
	}
	add(StagePre, f.Pre)
	add(StagePost, f.Post)
	return rows
}

// SetSteps splits rows into Pre and Post; rows must be ordered by stage_order.
func (f *Flow) SetSteps(rows []*FlowStep) {
	f.Pre = make([]Step, 0)
	f.Post = make([]Step, 0)
	for _, r := range rows {
		s := Step{
			Name:          r.Name,
			Policy:        r.Policy,
			Description:   r.Description,
			Enabled:       r.Enabled,
			Configuration: r.Configuration,
			Condition:     r.Condition,
		}
		if r.Stage == StagePost {
			f.Post = append(f.Post, s)
		} else {
			f.Pre = append(f.Pre, s)
		}
	}
}
