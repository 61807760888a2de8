package debugui

import (
	"cmp"
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/AllenDang/cimgui-go/imgui"
	"github.com/plus3/tempo/coroutine"
	"github.com/plus3/tempo/ecs"
	"github.com/plus3/tempo/fsm"
)

// BehaviorInfo is one row of the behavior browser: an entity's coroutine,
// holder or state machine.
type BehaviorInfo struct {
	ID     ecs.EntityId
	Kind   string
	Name   string
	State  string
	Depth  int
	Wait   string
	Active bool
}

const (
	columnEntity = iota
	columnKind
	columnState
	columnDepth
	columnWait
)

func NewBehaviorBrowserComponent(rowsPerPage int) BehaviorBrowserComponent {
	return BehaviorBrowserComponent{rowsPerPage: max(rowsPerPage, 1)}
}

// CollectBehaviors lists every coroutine, holder and state machine in
// storage, ordered by entity id then kind.
func CollectBehaviors(storage *ecs.Storage) []BehaviorInfo {
	var rows []BehaviorInfo

	coroutines := ecs.NewView[struct {
		ecs.EntityId
		*coroutine.Coroutine
	}](storage)
	for item := range coroutines.Values() {
		rows = append(rows, describeCoroutine(item.EntityId, "coroutine", "", item.Coroutine))
	}

	holders := ecs.NewView[struct {
		ecs.EntityId
		*coroutine.Holder
	}](storage)
	for item := range holders.Values() {
		rows = append(rows, BehaviorInfo{
			ID:     item.EntityId,
			Kind:   "holder",
			State:  fmt.Sprintf("%d tasks", item.Holder.Len()),
			Depth:  item.Holder.Len(),
			Active: item.Holder.Len() > 0,
		})
	}

	machines := ecs.NewView[struct {
		ecs.EntityId
		*fsm.StateMachine
	}](storage)
	for item := range machines.Values() {
		m := item.StateMachine
		row := describeCoroutine(item.EntityId, "fsm", m.Name, m.Coroutine())
		row.State = stateLabel(m.PreviousState()) + " -> " + stateLabel(m.State())
		rows = append(rows, row)
	}

	sortBehaviors(rows, columnEntity, false)
	return rows
}

func describeCoroutine(id ecs.EntityId, kind, name string, c *coroutine.Coroutine) BehaviorInfo {
	info := BehaviorInfo{
		ID:     id,
		Kind:   kind,
		Name:   name,
		Depth:  c.Depth(),
		Active: c.Active,
	}
	switch {
	case c.Finished:
		info.State = "finished"
	case c.Active:
		info.State = "running"
	default:
		info.State = "paused"
	}
	if seconds, frames := c.WaitRemaining(); frames > 0 {
		info.Wait = strconv.Itoa(frames) + "f"
	} else if seconds > 0 {
		info.Wait = strconv.FormatFloat(seconds, 'f', 2, 64) + "s"
	}
	return info
}

func stateLabel(s int) string {
	if s == fsm.NoState {
		return "-"
	}
	return strconv.Itoa(s)
}

func sortBehaviors(rows []BehaviorInfo, column int, desc bool) {
	slices.SortStableFunc(rows, func(a, b BehaviorInfo) int {
		var c int
		switch column {
		case columnKind:
			c = strings.Compare(a.Kind, b.Kind)
		case columnState:
			c = strings.Compare(a.State, b.State)
		case columnDepth:
			c = cmp.Compare(a.Depth, b.Depth)
		case columnWait:
			c = strings.Compare(a.Wait, b.Wait)
		}
		if c == 0 {
			c = cmp.Or(cmp.Compare(a.ID, b.ID), strings.Compare(a.Kind, b.Kind))
		}
		if desc {
			return -c
		}
		return c
	})
}

// FilterBehaviors returns the rows whose id, kind, name or state contains
// text, ignoring case.
func FilterBehaviors(rows []BehaviorInfo, text string) []BehaviorInfo {
	if text == "" {
		return rows
	}
	text = strings.ToLower(text)
	return slices.DeleteFunc(slices.Clone(rows), func(r BehaviorInfo) bool {
		haystack := strings.ToLower(strings.Join([]string{r.ID.String(), r.Kind, r.Name, r.State}, " "))
		return !strings.Contains(haystack, text)
	})
}

// Selected returns the entity picked in the browser, or 0.
func (bb *BehaviorBrowserComponent) Selected() ecs.EntityId {
	return bb.selected
}

func (bb *BehaviorBrowserComponent) Render(storage *ecs.Storage) {
	if !imgui.BeginV("Behaviors", nil, imgui.WindowFlagsNone) {
		imgui.End()
		return
	}

	bb.rows = CollectBehaviors(storage)
	sortBehaviors(bb.rows, bb.sortColumn, bb.sortDesc)

	imgui.InputTextWithHint("##filter", "Filter...", &bb.filterText, imgui.InputTextFlagsNone, nil)
	imgui.SameLine()
	if imgui.Button("Clear") {
		bb.filterText = ""
	}
	rows := FilterBehaviors(bb.rows, bb.filterText)

	pages := max((len(rows)+bb.rowsPerPage-1)/bb.rowsPerPage, 1)
	bb.currentPage = min(bb.currentPage, pages-1)
	start := bb.currentPage * bb.rowsPerPage
	end := min(start+bb.rowsPerPage, len(rows))

	const tableFlags = imgui.TableFlagsBorders | imgui.TableFlagsRowBg | imgui.TableFlagsSortable | imgui.TableFlagsScrollY
	if imgui.BeginTableV("BehaviorTable", 5, tableFlags, imgui.NewVec2(0, 0), 0) {
		imgui.TableSetupColumn("Entity")
		imgui.TableSetupColumn("Kind")
		imgui.TableSetupColumn("State")
		imgui.TableSetupColumn("Depth")
		imgui.TableSetupColumn("Wait")
		imgui.TableHeadersRow()

		specs := imgui.TableGetSortSpecs()
		if specs.SpecsDirty() && specs.SpecsCount() > 0 {
			spec := specs.Specs()
			bb.sortColumn = int(spec.ColumnIndex())
			bb.sortDesc = spec.SortDirection() == imgui.SortDirectionDescending
			specs.SetSpecsDirty(false)
		}

		for _, row := range rows[start:end] {
			imgui.TableNextRow()

			imgui.TableNextColumn()
			label := row.ID.String() + "##" + row.Kind
			if imgui.SelectableBoolV(label, bb.selected == row.ID, imgui.SelectableFlagsSpanAllColumns, imgui.NewVec2(0, 0)) {
				bb.selected = row.ID
			}

			imgui.TableNextColumn()
			if row.Name != "" {
				imgui.Text(row.Kind + " " + row.Name)
			} else {
				imgui.Text(row.Kind)
			}
			imgui.TableNextColumn()
			imgui.Text(row.State)
			imgui.TableNextColumn()
			imgui.Text(strconv.Itoa(row.Depth))
			imgui.TableNextColumn()
			imgui.Text(row.Wait)
		}

		imgui.EndTable()
	}

	if pages > 1 {
		imgui.Text(fmt.Sprintf("Page %d / %d (%d behaviors)", bb.currentPage+1, pages, len(rows)))
		imgui.SameLine()
		if imgui.Button("Prev") && bb.currentPage > 0 {
			bb.currentPage--
		}
		imgui.SameLine()
		if imgui.Button("Next") && bb.currentPage < pages-1 {
			bb.currentPage++
		}
	} else {
		imgui.Text(fmt.Sprintf("Total: %d behaviors", len(rows)))
	}

	imgui.End()
}
