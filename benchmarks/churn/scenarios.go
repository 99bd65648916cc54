// ABOUTME: Churn benchmark scenarios - template sizes, step counts and op mixes
// ABOUTME: Seeds are fixed so every run replays the same operation sequence

package churn

import "fmt"

// OpMix weights each operation kind when picking the next step
type OpMix struct {
	Move   int `json:"move"`
	Assign int `json:"assign"`
	Skip   int `json:"skip"`
	Select int `json:"select"`
	Clear  int `json:"clear"`
}

func (m OpMix) total() int {
	return m.Move + m.Assign + m.Skip + m.Select + m.Clear
}

// Scenario describes one benchmark run
type Scenario struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Items int    `json:"items"`
	Steps int    `json:"steps"`
	Seed  uint64 `json:"seed"`
	Mix   OpMix  `json:"mix"`
}

// Scenarios returns the built-in scenarios
func Scenarios() []Scenario {
	return []Scenario{
		{
			ID: "small", Name: "Small template, keyboard ranking",
			Items: 12, Steps: 2_000, Seed: 1,
			Mix: OpMix{Move: 2, Assign: 10, Skip: 3, Select: 1, Clear: 1},
		},
		{
			ID: "drag", Name: "Drag-and-drop heavy",
			Items: 100, Steps: 20_000, Seed: 2,
			Mix: OpMix{Move: 20, Assign: 2, Skip: 1, Select: 2, Clear: 1},
		},
		{
			ID: "large", Name: "Large catalogue, mixed use",
			Items: 1_000, Steps: 50_000, Seed: 3,
			Mix: OpMix{Move: 8, Assign: 8, Skip: 4, Select: 2, Clear: 1},
		},
	}
}

// ScenarioByID finds a built-in scenario
func ScenarioByID(id string) (Scenario, error) {
	for _, s := range Scenarios() {
		if s.ID == id {
			return s, nil
		}
	}
	return Scenario{}, fmt.Errorf("unknown scenario %q (valid options: small, drag, large)", id)
}
