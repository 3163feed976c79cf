package main

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/aretw0/qret/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseItem(t *testing.T) {
	tests := []struct {
		raw     string
		id      string
		qty     int
		wantErr bool
	}{
		{raw: "1122=3", id: "1122", qty: 3},
		{raw: " 5566 = 1 ", id: "5566", qty: 1},
		{raw: "3344", id: "3344", qty: 1},
		{raw: "=2", wantErr: true},
		{raw: "1122=0", wantErr: true},
		{raw: "1122=two", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			id, qty, err := parseItem(tt.raw)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.id, id)
			assert.Equal(t, tt.qty, qty)
		})
	}
}

func TestDeriveCommand_JSON(t *testing.T) {
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs([]string{"derive", "--invoice", "INV-2001", "--item", "1122=2", "--json", "--log-level", "error"})
	require.NoError(t, rootCmd.Execute())

	var sum domain.Summary
	require.NoError(t, json.Unmarshal(out.Bytes(), &sum))
	assert.Equal(t, int64(2*1299), sum.TotalValueCents)
	assert.Equal(t, 1, sum.UnreceiptedQty)
}
