package netlist

import (
	"fmt"
	"gonetlist/internal/models"
	"strconv"
	"strings"

	"github.com/mattn/go-runewidth"
)

// Column is one field of a network line.
type Column uint8

const (
	ColDecay Column = iota
	ColName
	ColShortName
	ColNetType
	ColCrypt
	ColChannel
	ColPackData
	ColPackLLC
	ColPackCrypt
	ColBSSID
	ColPackets
	ColClients
	ColDataSize
	ColSignalBar
)

// Extra is an optional detail line shown under a group when extended info is on.
type Extra uint8

const (
	ExtLastSeen Extra = iota
	ExtBSSID
	ExtCrypt
	ExtIP
	ExtManuf
	ExtModel
)

type columnDef struct {
	name  string
	title string
	width int
	right bool
	value func(n *models.Network, name string) string
}

var columnDefs = map[Column]columnDef{
	ColDecay:     {"decay", " ", 1, false, decayMark},
	ColName:      {"name", "Name", 25, false, func(_ *models.Network, name string) string { return name }},
	ColShortName: {"shortname", "Name", 15, false, func(_ *models.Network, name string) string { return name }},
	ColNetType:   {"nettype", "T", 1, false, func(n *models.Network, _ string) string { return netTypeMark(n.Type) }},
	ColCrypt:     {"crypt", "C", 1, false, func(n *models.Network, _ string) string { return cryptMark(n.Crypt) }},
	ColChannel:   {"channel", "Ch", 3, true, channelText},
	ColPackData:  {"packdata", "Data", 5, true, func(n *models.Network, _ string) string { return count(n.DataPackets) }},
	ColPackLLC:   {"packllc", "LLC", 5, true, func(n *models.Network, _ string) string { return count(n.LLCPackets) }},
	ColPackCrypt: {"packcrypt", "Crypt", 5, true, func(n *models.Network, _ string) string { return count(n.CryptPackets) }},
	ColBSSID:     {"bssid", "BSSID", 17, false, func(n *models.Network, _ string) string { return n.Addr.String() }},
	ColPackets:   {"packets", "Pkts", 6, true, func(n *models.Network, _ string) string { return count(n.Packets()) }},
	ColClients:   {"clients", "Clnt", 4, true, func(n *models.Network, _ string) string { return strconv.Itoa(n.Clients) }},
	ColDataSize:  {"datasize", "Size", 7, true, func(n *models.Network, _ string) string { return formatBytes(n.DataSize) }},
	ColSignalBar: {"signalbar", "Signal", signalBarWidth, false, signalBar},
}

var extraNames = map[Extra]string{
	ExtLastSeen: "lastseen",
	ExtBSSID:    "bssid",
	ExtCrypt:    "crypt",
	ExtIP:       "ip",
	ExtManuf:    "manuf",
	ExtModel:    "model",
}

func (c Column) String() string { return columnDefs[c].name }

func (e Extra) String() string { return extraNames[e] }

// ParseColumns maps column names to columns, keeping their order.
func ParseColumns(names []string) ([]Column, error) {
	out := make([]Column, 0, len(names))
	for _, raw := range names {
		name := strings.ToLower(strings.TrimSpace(raw))
		found := false
		for col, def := range columnDefs {
			if def.name == name {
				out = append(out, col)
				found = true
				break
			}
		}
		if !found {
			return nil, fmt.Errorf("unknown column %q", raw)
		}
	}
	return out, nil
}

// ParseExtras maps extra names to extras, keeping their order.
func ParseExtras(names []string) ([]Extra, error) {
	out := make([]Extra, 0, len(names))
	for _, raw := range names {
		name := strings.ToLower(strings.TrimSpace(raw))
		found := false
		for ext, n := range extraNames {
			if n == name {
				out = append(out, ext)
				found = true
				break
			}
		}
		if !found {
			return nil, fmt.Errorf("unknown extra %q", raw)
		}
	}
	return out, nil
}

// ColumnSpec is the configured line layout.
type ColumnSpec struct {
	Columns []Column
	Extras  []Extra
}

// Header renders the column titles.
func (s *ColumnSpec) Header() string {
	cells := make([]string, len(s.Columns))
	for i, c := range s.Columns {
		def := columnDefs[c]
		cells[i] = fit(def.title, def.width, def.right)
	}
	return strings.Join(cells, " ")
}

// Line formats one network under the given display name.
func (s *ColumnSpec) Line(n *models.Network, name string) string {
	cells := make([]string, len(s.Columns))
	for i, c := range s.Columns {
		def := columnDefs[c]
		cells[i] = fit(def.value(n, name), def.width, def.right)
	}
	return strings.Join(cells, " ")
}

// Details formats the extra lines for a network.
func (s *ColumnSpec) Details(n *models.Network) []string {
	var out []string
	for _, e := range s.Extras {
		switch e {
		case ExtLastSeen:
			if !n.LastTime.IsZero() {
				out = append(out, "    Last seen: "+n.LastTime.Format("2006-01-02 15:04:05"))
			}
		case ExtBSSID:
			out = append(out, "    BSSID: "+n.Addr.String())
		case ExtCrypt:
			out = append(out, "    Crypt: "+n.Crypt.String())
		case ExtIP:
			if n.RangeIP != nil && !n.RangeIP.IsUnspecified() {
				out = append(out, "    IP: "+n.RangeIP.String())
			}
		case ExtManuf:
			manuf := n.Manuf
			if manuf == "" {
				manuf = "Unknown"
			}
			out = append(out, "    Manuf: "+manuf)
		case ExtModel:
			if n.Model != "" {
				out = append(out, "    Model: "+n.Model)
			}
		}
	}
	return out
}

func fit(s string, width int, right bool) string {
	s = runewidth.Truncate(s, width, "")
	if right {
		return runewidth.FillLeft(s, width)
	}
	return runewidth.FillRight(s, width)
}

func decayMark(n *models.Network, _ string) string {
	if n.NewPackets > 0 {
		return "!"
	}
	return " "
}

func netTypeMark(t models.NetType) string {
	switch t {
	case models.NetAP:
		return "A"
	case models.NetAdhoc:
		return "H"
	case models.NetProbe:
		return "P"
	case models.NetData:
		return "D"
	case models.NetTurbocell:
		return "T"
	case models.NetMixed:
		return "G"
	default:
		return "?"
	}
}

func cryptMark(c models.CryptSet) string {
	switch {
	case c == 0:
		return "N"
	case c == models.CryptWEP:
		return "W"
	default:
		return "O"
	}
}

func channelText(n *models.Network, _ string) string {
	if n.Channel <= 0 {
		return "---"
	}
	return strconv.Itoa(n.Channel)
}

func count(v int64) string {
	if v >= 100000 {
		return strconv.FormatInt(v/1000, 10) + "k"
	}
	return strconv.FormatInt(v, 10)
}

const (
	signalFloor    = -95
	signalCeil     = -35
	signalBarWidth = 10
)

func signalBar(n *models.Network, _ string) string {
	width := signalBarWidth
	if n.SignalDBM == 0 {
		return strings.Repeat(".", width)
	}
	level := n.SignalDBM
	level = max(signalFloor, min(signalCeil, level))
	filled := (level - signalFloor) * width / (signalCeil - signalFloor)
	return strings.Repeat("#", filled) + strings.Repeat(".", width-filled)
}

func formatBytes(bytes int64) string {
	const unit = 1024
	if bytes < unit {
		return fmt.Sprintf("%dB", bytes)
	}
	div, exp := int64(unit), 0
	for n := bytes / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f%cB", float64(bytes)/float64(div), "KMGTPE"[exp])
}
