package elevation

import (
	"encoding/binary"
	"fmt"
	"math"
)

// hgtVoid marks a missing SRTM sample.
const hgtVoid = -32768

// TileName identifies a 1x1 degree SRTM tile by its south-west corner.
type TileName struct {
	LatDeg int
	LonDeg int
	NS     byte
	EW     byte
}

func tileNameFor(lat, lon float64) TileName {
	latFloor := int(math.Floor(lat))
	lonFloor := int(math.Floor(lon))

	t := TileName{LatDeg: latFloor, LonDeg: lonFloor, NS: 'N', EW: 'E'}
	if latFloor < 0 {
		t.NS = 'S'
		t.LatDeg = -latFloor
	}
	if lonFloor < 0 {
		t.EW = 'W'
		t.LonDeg = -lonFloor
	}
	return t
}

// FileStem is the conventional tile stem, e.g. N37E144 or S38W071.
func (t TileName) FileStem() string {
	return fmt.Sprintf("%c%02d%c%03d", t.NS, t.LatDeg, t.EW, t.LonDeg)
}

func (t TileName) south() float64 {
	if t.NS == 'S' {
		return -float64(t.LatDeg)
	}
	return float64(t.LatDeg)
}

func (t TileName) west() float64 {
	if t.EW == 'W' {
		return -float64(t.LonDeg)
	}
	return float64(t.LonDeg)
}

// hgtTile is a square grid of big-endian int16 samples, row 0 on the north edge.
type hgtTile struct {
	name   TileName
	size   int
	values []int16
}

func parseHGT(raw []byte, name TileName) (*hgtTile, error) {
	if len(raw)%2 != 0 {
		return nil, fmt.Errorf("hgt %s: payload not multiple of int16: %d", name.FileStem(), len(raw))
	}
	n := len(raw) / 2
	size := int(math.Round(math.Sqrt(float64(n))))
	if size*size != n || size < 2 {
		return nil, fmt.Errorf("hgt %s: non-square grid: n=%d", name.FileStem(), n)
	}

	values := make([]int16, n)
	for i := range values {
		values[i] = int16(binary.BigEndian.Uint16(raw[i*2:]))
	}

	return &hgtTile{name: name, size: size, values: values}, nil
}

func (t *hgtTile) at(row, col int) int16 {
	return t.values[row*t.size+col]
}

// heightAt interpolates bilinearly between the four surrounding samples.
// With voids among them it falls back to the mean of the valid ones.
func (t *hgtTile) heightAt(lat, lon float64) (float64, bool) {
	fx := lon - t.name.west()
	fy := t.name.south() + 1 - lat
	if fx < 0 || fx > 1 || fy < 0 || fy > 1 {
		return 0, false
	}

	px := fx * float64(t.size-1)
	py := fy * float64(t.size-1)

	col := min(int(math.Floor(px)), t.size-2)
	row := min(int(math.Floor(py)), t.size-2)

	dx := px - float64(col)
	dy := py - float64(row)

	p00 := t.at(row, col)
	p01 := t.at(row, col+1)
	p10 := t.at(row+1, col)
	p11 := t.at(row+1, col+1)

	var sum float64
	var cnt int
	for _, v := range []int16{p00, p01, p10, p11} {
		if v != hgtVoid {
			sum += float64(v)
			cnt++
		}
	}
	if cnt == 0 {
		return 0, false
	}
	if cnt < 4 {
		return sum / float64(cnt), true
	}

	top := (1-dx)*float64(p00) + dx*float64(p01)
	bottom := (1-dx)*float64(p10) + dx*float64(p11)
	return (1-dy)*top + dy*bottom, true
}
