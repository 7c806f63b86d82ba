package commands

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
	"timetable/internal/models/schedule"
	"timetable/internal/service"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const weekFile = `
activities:
  - name: Reading
    day: Sunday
    start: "21:00"
    end: "22:00"
  - name: Gym
    day: Monday
    start: "07:00"
    end: "08:00"
  - name: Gym
    day: Thursday
    start: "07:00"
    end: "08:00"
`

type cli struct {
	t      *testing.T
	config string
	dir    string
}

func newCLI(t *testing.T) *cli {
	t.Helper()
	dir := t.TempDir()
	configPath := filepath.Join(dir, "config.yml")
	body := "repository:\n  type: sqlite\n" +
		"database:\n  sqlite_path: " + filepath.Join(dir, "timetable.db") + "\n" +
		"schedule:\n  timezone: UTC\n"
	require.NoError(t, os.WriteFile(configPath, []byte(body), 0o600))
	return &cli{t: t, config: configPath, dir: dir}
}

func (c *cli) run(args ...string) (string, error) {
	c.t.Helper()
	root := NewRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(append([]string{"--config", c.config, "--log-level", "error"}, args...))
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func (c *cli) mustRun(args ...string) string {
	c.t.Helper()
	out, err := c.run(args...)
	require.NoError(c.t, err, out)
	return out
}

func TestCLI_Workflow(t *testing.T) {
	c := newCLI(t)

	path := filepath.Join(c.dir, "week.yml")
	require.NoError(t, os.WriteFile(path, []byte(weekFile), 0o600))
	assert.Contains(t, c.mustRun("import", path), "Импортировано активностей: 3")

	// понедельник 07:30 UTC
	assert.Contains(t, c.mustRun("current", "--at", "2024-01-08T07:30:00Z"), "Gym")
	assert.Contains(t, c.mustRun("current", "--at", "2024-01-09T03:00:00Z"), "Сейчас ничего не запланировано")

	week := c.mustRun("week", "--at", "2024-01-08T07:30:00Z")
	for _, want := range []string{"Sunday", "Monday", "Thursday", "Reading", "Gym", "07:00-08:00", "(сегодня)"} {
		assert.Contains(t, week, want)
	}

	lines := strings.Split(strings.TrimSpace(c.mustRun("activity", "list")), "\n")
	require.Len(t, lines, 3)
	assert.Contains(t, lines[1], "Monday")
	mondayGym := strings.Fields(lines[1])[0]

	added := c.mustRun("task", "add", mondayGym, "new", "deadlift", "form")
	fields := strings.Fields(added)
	require.GreaterOrEqual(t, len(fields), 4)
	taskID := fields[2]
	assert.Contains(t, added, "new deadlift form")

	carried := c.mustRun("carry", taskID)
	assert.Contains(t, carried, "Thursday")
	assert.Contains(t, carried, "07:00-08:00")

	// исходная задача удалена вместе с переносом
	assert.Empty(t, strings.TrimSpace(c.mustRun("task", "list", mondayGym)))
	_, err := c.run("carry", taskID)
	assert.Error(t, err)

	started := c.mustRun("session", "start", mondayGym)
	sessionID := strings.Fields(started)[1]
	assert.Contains(t, c.mustRun("session", "active"), sessionID)

	_, err = c.run("session", "start", mondayGym)
	require.Error(t, err)
	assert.Contains(t, err.Error(), service.CodeSessionAlreadyOpen)

	assert.Contains(t, c.mustRun("session", "complete", sessionID, "--learnings", "grip"), "завершена")
	assert.Contains(t, c.mustRun("session", "active"), "Открытых сессий нет")

	_, err = c.run("session", "complete", sessionID)
	assert.Error(t, err)
}

func TestCLI_BadArguments(t *testing.T) {
	c := newCLI(t)

	_, err := c.run("carry", "not-a-uuid")
	assert.Error(t, err)

	_, err = c.run("current", "--at", "yesterday")
	assert.Error(t, err)

	_, err = c.run("activity", "add", "--name", "Gym", "--day", "Funday", "--start", "07:00", "--end", "08:00")
	require.Error(t, err)
	assert.Contains(t, err.Error(), service.CodeValidation)
}

func TestVersionCmd(t *testing.T) {
	root := NewRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetArgs([]string{"version"})
	require.NoError(t, root.Execute())
	assert.Contains(t, out.String(), "timetable dev")
}

func TestRenderWeek(t *testing.T) {
	gym := &schedule.Activity{
		ID:   uuid.New(),
		Name: "Gym",
		Slot: schedule.WeeklySlot{Day: time.Monday, Start: schedule.NewClock(7, 0), End: schedule.NewClock(8, 0)},
	}

	days := make([]service.DaySchedule, 0, len(schedule.Days))
	for _, day := range schedule.Days {
		ds := service.DaySchedule{Day: day}
		if day == time.Monday {
			ds.Activities = []*schedule.Activity{gym}
		}
		days = append(days, ds)
	}

	out := renderWeek(&service.Timetable{
		Days:    days,
		Current: gym,
		Now:     time.Date(2024, time.January, 8, 7, 30, 0, 0, time.UTC),
	})

	assert.Contains(t, out, "▶")
	assert.Contains(t, out, "07:00-08:00")
	assert.Contains(t, out, "Saturday")
	assert.Less(t, strings.Index(out, "Sunday"), strings.Index(out, "Monday"))
}

func TestRenderCurrent_Nothing(t *testing.T) {
	assert.Contains(t, renderCurrent(nil), "Сейчас ничего не запланировано")
}
