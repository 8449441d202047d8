package storage

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/san-kum/orbitsim/internal/physics"
)

type ExportData struct {
	Run      RunMetadata      `json:"run"`
	Times    []float64        `json:"times"`
	States   []physics.State  `json:"states"`
	Energies []physics.Energy `json:"energies"`
}

func NewExportData(meta RunMetadata, states []physics.State) ExportData {
	k := meta.Kernel()
	data := ExportData{
		Run:      meta,
		Times:    make([]float64, len(states)),
		States:   states,
		Energies: make([]physics.Energy, len(states)),
	}
	for i, s := range states {
		data.Times[i] = s.Elapsed.Seconds()
		data.Energies[i] = k.Energies(s.Bodies)
	}
	return data
}

func ExportJSON(w io.Writer, meta RunMetadata, states []physics.State) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(NewExportData(meta, states))
}

func ExportJSONFile(path string, meta RunMetadata, states []physics.State) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	return ExportJSON(file, meta, states)
}

// ExportCSV writes states in the same layout the recorder uses.
func ExportCSV(w io.Writer, states []physics.State) error {
	if len(states) == 0 {
		return fmt.Errorf("no data to export")
	}

	cw := csv.NewWriter(w)
	if err := cw.Write(header(states[0].Len())); err != nil {
		return err
	}
	for i, s := range states {
		if s.Len() != states[0].Len() {
			return fmt.Errorf("%w: state %d has %d bodies", ErrBodyMismatch, i, s.Len())
		}
		if err := cw.Write(row(s)); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
