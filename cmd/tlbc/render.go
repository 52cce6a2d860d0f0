// Copyright 2026 The TLB Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"fmt"
	"math/big"
	"sort"

	"github.com/pterm/pterm"

	"github.com/skulidropek/tlb-rest-server/lib/tlbcodec"
)

var (
	errorStyleBG = pterm.NewStyle(pterm.BgRed, pterm.FgWhite)
	errorColorFG = pterm.FgRed
	successColor = pterm.FgLightGreen
	fieldColor   = pterm.FgCyan
)

// printError renders a labeled error the way a compiler driver
// renders a diagnostic: a colored tag followed by the message.
func printError(tag string, err error) {
	errorStyleBG.Print(" " + tag + " ")
	errorColorFG.Println(" " + err.Error())
}

func printSuccess(msg string) {
	successColor.Println(msg)
}

// renderValue pretty-prints a decoded Value tree to stdout using
// pterm's bullet-list renderer, so an operator inspecting a cell at
// the terminal sees its field structure at a glance instead of a
// dumped Go struct.
func renderValue(v tlbcodec.Value) {
	items := valueTree("", v)
	pterm.DefaultBulletList.WithItems(items).Render()
}

func valueTree(label string, v tlbcodec.Value) []pterm.BulletListItem {
	switch t := v.(type) {
	case *tlbcodec.Record:
		items := []pterm.BulletListItem{{Level: 0, Text: fieldColor.Sprint(labelPrefix(label) + t.Kind)}}
		for _, name := range t.Order {
			for _, child := range valueTree(name, t.Fields[name]) {
				child.Level++
				items = append(items, child)
			}
		}
		return items

	case tlbcodec.Sequence:
		items := []pterm.BulletListItem{{Level: 0, Text: labelPrefix(label) + fmt.Sprintf("[%d items]", len(t.Items))}}
		for i, item := range t.Items {
			for _, child := range valueTree(fmt.Sprintf("%d", i), item) {
				child.Level++
				items = append(items, child)
			}
		}
		return items

	case *tlbcodec.Dict:
		keys := make([]string, 0, len(t.Entries))
		byKey := map[string]*big.Int{}
		values := map[string]tlbcodec.Value{}
		for _, entry := range t.Entries {
			k := entry.Key.String()
			keys = append(keys, k)
			byKey[k] = entry.Key
			values[k] = entry.Value
		}
		sort.Slice(keys, func(i, j int) bool { return byKey[keys[i]].Cmp(byKey[keys[j]]) < 0 })
		items := []pterm.BulletListItem{{Level: 0, Text: labelPrefix(label) + fmt.Sprintf("{%d entries}", len(keys))}}
		for _, k := range keys {
			for _, child := range valueTree(k, values[k]) {
				child.Level++
				items = append(items, child)
			}
		}
		return items

	case tlbcodec.Absent:
		return []pterm.BulletListItem{{Level: 0, Text: labelPrefix(label) + "(absent)"}}

	default:
		return []pterm.BulletListItem{{Level: 0, Text: labelPrefix(label) + scalarText(v)}}
	}
}

func labelPrefix(label string) string {
	if label == "" {
		return ""
	}
	return label + ": "
}

func scalarText(v tlbcodec.Value) string {
	switch t := v.(type) {
	case tlbcodec.Int:
		return fmt.Sprintf("%d", t.Value)
	case tlbcodec.BigInt:
		return t.Value.String()
	case tlbcodec.Bool:
		return fmt.Sprintf("%t", t.Value)
	case tlbcodec.Text:
		return fmt.Sprintf("%q", t.Value)
	case tlbcodec.Bits:
		return fmt.Sprintf("0x%x (%d bits)", t.Value.Data, t.Value.Len)
	case tlbcodec.Address:
		return t.Value.String()
	case tlbcodec.CellRef:
		if t.Value == nil {
			return "(no cell)"
		}
		return fmt.Sprintf("^cell(%d bits, %d refs)", t.Value.BitLen(), t.Value.RefCount())
	default:
		return fmt.Sprintf("%v", v)
	}
}
