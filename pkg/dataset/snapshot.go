package dataset

import (
	"bufio"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/David-Botos/exo-habitability/pkg/converter"
	"github.com/David-Botos/exo-habitability/pkg/model"
)

// ErrMalformedSnapshot is returned when a cached snapshot cannot be decoded
var ErrMalformedSnapshot = errors.New("malformed snapshot")

const snapshotMarker = "# exohab-snapshot"

// SnapshotMeta is carried on the first line of a snapshot file
type SnapshotMeta struct {
	Schema      int
	Fingerprint string
}

// Snapshot is a decoded cache file
type Snapshot struct {
	Meta    SnapshotMeta
	Planets []model.Planet
}

// SnapshotExists reports whether a snapshot file is present at path
func SnapshotExists(path string) (bool, error) {
	info, err := os.Stat(path)
	if errors.Is(err, os.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to stat snapshot %s: %w", path, err)
	}
	if info.IsDir() {
		return false, fmt.Errorf("%w: %s is a directory", ErrMalformedSnapshot, path)
	}
	return true, nil
}

// WriteSnapshot atomically writes the planets with their metadata line
func WriteSnapshot(path string, meta SnapshotMeta, planets []model.Planet) error {
	return WriteFileAtomic(path, func(w io.Writer) error {
		return EncodeSnapshot(w, meta, planets)
	})
}

// EncodeSnapshot writes the snapshot format to w
func EncodeSnapshot(w io.Writer, meta SnapshotMeta, planets []model.Planet) error {
	if _, err := fmt.Fprintf(w, "%s schema=%d fingerprint=%s\n", snapshotMarker, meta.Schema, meta.Fingerprint); err != nil {
		return err
	}

	cw := csv.NewWriter(w)
	if err := cw.Write(model.PlanetTable.Names()); err != nil {
		return err
	}

	record := make([]string, len(model.PlanetTable.Columns))
	for i := range planets {
		p := &planets[i]
		for j, col := range model.PlanetTable.Columns {
			record[j] = encodeCell(p, col)
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}

	cw.Flush()
	return cw.Error()
}

// ReadSnapshot loads and decodes a snapshot file
func ReadSnapshot(path string) (*Snapshot, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open snapshot %s: %w", path, err)
	}
	defer f.Close()

	snap, err := DecodeSnapshot(f)
	if err != nil {
		return nil, fmt.Errorf("failed to read snapshot %s: %w", path, err)
	}
	return snap, nil
}

// DecodeSnapshot parses the snapshot format. A file without the metadata
// line decodes with a zero SnapshotMeta.
func DecodeSnapshot(r io.Reader) (*Snapshot, error) {
	br := bufio.NewReader(r)
	snap := &Snapshot{}

	peek, err := br.Peek(len(snapshotMarker))
	if err == nil && string(peek) == snapshotMarker {
		line, err := br.ReadString('\n')
		if err != nil && err != io.EOF {
			return nil, fmt.Errorf("%w: %v", ErrMalformedSnapshot, err)
		}
		snap.Meta, err = parseMeta(line)
		if err != nil {
			return nil, err
		}
	}

	cr := csv.NewReader(br)
	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("%w: missing header: %v", ErrMalformedSnapshot, err)
	}

	expected := model.PlanetTable.Names()
	if len(header) != len(expected) {
		return nil, fmt.Errorf("%w: expected %d columns, found %d", ErrMalformedSnapshot, len(expected), len(header))
	}
	for i, name := range expected {
		if header[i] != name {
			return nil, fmt.Errorf("%w: column %d is %q, expected %q", ErrMalformedSnapshot, i, header[i], name)
		}
	}

	for line := 2; ; line++ {
		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformedSnapshot, err)
		}

		var p model.Planet
		for j, col := range model.PlanetTable.Columns {
			if err := decodeCell(&p, col, record[j]); err != nil {
				return nil, fmt.Errorf("%w: row %d column %s: %v", ErrMalformedSnapshot, line, col.Name, err)
			}
		}
		snap.Planets = append(snap.Planets, p)
	}

	return snap, nil
}

func parseMeta(line string) (SnapshotMeta, error) {
	var meta SnapshotMeta
	for _, field := range strings.Fields(strings.TrimPrefix(line, snapshotMarker)) {
		key, value, ok := strings.Cut(field, "=")
		if !ok {
			continue
		}
		switch key {
		case "schema":
			n, err := strconv.Atoi(value)
			if err != nil {
				return meta, fmt.Errorf("%w: bad schema version %q", ErrMalformedSnapshot, value)
			}
			meta.Schema = n
		case "fingerprint":
			meta.Fingerprint = value
		}
	}
	return meta, nil
}

func encodeCell(p *model.Planet, col model.Column) string {
	switch col.Kind {
	case model.KindText:
		return *col.Text(p)
	case model.KindFloat:
		return converter.FormatFloat(*col.Value(p))
	case model.KindPlanetType:
		if p.Type == nil {
			return ""
		}
		return strconv.Itoa(int(*p.Type))
	case model.KindBool:
		v := *col.Flag(p)
		if v == nil {
			return ""
		}
		return strconv.FormatBool(*v)
	}
	return ""
}

func decodeCell(p *model.Planet, col model.Column, cell string) error {
	switch col.Kind {
	case model.KindText:
		*col.Text(p) = cell
	case model.KindFloat:
		if cell == "" {
			return nil
		}
		f, err := strconv.ParseFloat(cell, 64)
		if err != nil {
			return err
		}
		*col.Value(p) = &f
	case model.KindPlanetType:
		if cell == "" {
			return nil
		}
		t, err := model.ParsePlanetType(cell)
		if err != nil {
			return err
		}
		p.Type = &t
	case model.KindBool:
		if cell == "" {
			return nil
		}
		b, err := strconv.ParseBool(cell)
		if err != nil {
			return err
		}
		*col.Flag(p) = &b
	}
	return nil
}
