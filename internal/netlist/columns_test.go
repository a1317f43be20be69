package netlist

import (
	"gonetlist/internal/models"
	"strings"
	"testing"
)

func TestParseColumns(t *testing.T) {
	cols, err := ParseColumns([]string{"Name", " channel ", "signalbar"})
	if err != nil {
		t.Fatal(err)
	}
	if len(cols) != 3 || cols[0] != ColName || cols[1] != ColChannel || cols[2] != ColSignalBar {
		t.Errorf("ParseColumns = %v", cols)
	}
	if _, err := ParseColumns([]string{"name", "bogus"}); err == nil {
		t.Error("ParseColumns accepted an unknown column")
	}
	if _, err := ParseExtras([]string{"lastseen", "nope"}); err == nil {
		t.Error("ParseExtras accepted an unknown extra")
	}
}

func TestColumnLine(t *testing.T) {
	spec := ColumnSpec{Columns: []Column{ColName, ColChannel}}
	n := &models.Network{Channel: 6}
	want := "net" + strings.Repeat(" ", 22) + "   6"
	if got := spec.Line(n, "net"); got != want {
		t.Errorf("Line = %q, want %q", got, want)
	}

	n.Channel = 0
	if got := spec.Line(n, strings.Repeat("x", 40)); got != strings.Repeat("x", 25)+" ---" {
		t.Errorf("Line = %q", got)
	}
	if got := spec.Header(); got != "Name"+strings.Repeat(" ", 21)+"  Ch" {
		t.Errorf("Header = %q", got)
	}
}

func TestColumnValues(t *testing.T) {
	tests := []struct {
		name string
		got  string
		want string
	}{
		{"count small", count(99999), "99999"},
		{"count large", count(123456), "123k"},
		{"bytes", formatBytes(512), "512B"},
		{"kilobytes", formatBytes(1536), "1.5KB"},
		{"megabytes", formatBytes(3 * 1024 * 1024), "3.0MB"},
		{"signal", signalBar(&models.Network{SignalDBM: -65}, ""), "#####....."},
		{"signal floor", signalBar(&models.Network{SignalDBM: -120}, ""), ".........."},
		{"signal ceil", signalBar(&models.Network{SignalDBM: -10}, ""), "##########"},
		{"crypt none", cryptMark(0), "N"},
		{"crypt wep", cryptMark(models.CryptWEP), "W"},
		{"crypt other", cryptMark(models.CryptWPA | models.CryptPSK), "O"},
		{"decay", decayMark(&models.Network{NewPackets: 1}, ""), "!"},
		{"mixed type", netTypeMark(models.NetMixed), "G"},
	}
	for _, tc := range tests {
		if tc.got != tc.want {
			t.Errorf("%s = %q, want %q", tc.name, tc.got, tc.want)
		}
	}
}
