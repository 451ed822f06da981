package selector

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rvalero/motoparts-scraper/internal/driver"
)

// fakeFormDriver simulates the cascading form. The dependent selector
// only exposes valid options once the form has been reset a configured
// number of times, mimicking the site's bugged-refresh behavior.
type fakeFormDriver struct {
	validAfterResets int
	resets           int
	selects          []string
	indexResets      int
}

func (f *fakeFormDriver) Navigate(url string) error {
	f.resets++
	return nil
}

func (f *fakeFormDriver) WaitVisible(locator string, timeout time.Duration) error {
	return nil
}

func (f *fakeFormDriver) Options(locator string) ([]driver.Option, error) {
	if f.resets >= f.validAfterResets {
		return []driver.Option{
			{Value: "-1", Text: "- Seleccionar -"},
			{Value: "7", Text: "AJP"},
			{Value: "9", Text: "APRILIA"},
		}, nil
	}
	return []driver.Option{
		{Value: "-1", Text: "- Seleccionar -"},
		{Value: "", Text: ""},
	}, nil
}

func (f *fakeFormDriver) SelectValue(locator, value string) error {
	f.selects = append(f.selects, locator+"="+value)
	return nil
}

func (f *fakeFormDriver) SelectText(locator, text string) error {
	return nil
}

func (f *fakeFormDriver) SelectIndex(locator string, index int) error {
	f.indexResets++
	return nil
}

func (f *fakeFormDriver) Click(locator string) error { return nil }
func (f *fakeFormDriver) CurrentURL() string         { return "https://site.example/" }
func (f *fakeFormDriver) Content() (string, error)   { return "", nil }

func testConfig() Config {
	return Config{
		BaseURL:          "https://site.example/",
		Chain:            []string{"#itipo", "#imarca", "#icc", "#imodel"},
		Retries:          3,
		RecoveryAttempts: 3,
		StepDelay:        time.Millisecond,
		SettleDelay:      time.Millisecond,
		WaitTimeout:      time.Second,
	}
}

func TestSelectValidatedRecoversFromBuggedDependent(t *testing.T) {
	// Dependent selector is empty until two resets have happened.
	d := &fakeFormDriver{validAfterResets: 2}
	e := New(d, testConfig())

	err := e.SelectValidated(context.Background(), "#itipo", "3", "#imarca", "vehicle type")
	require.NoError(t, err)
	assert.Equal(t, 2, e.Resets())

	value, ok := e.Expected("#itipo")
	require.True(t, ok)
	assert.Equal(t, "3", value)

	// Every reset forces the whole chain back to its default option.
	assert.Equal(t, 2*4, d.indexResets)
}

func TestSelectValidatedExhaustsRecoveryBudget(t *testing.T) {
	d := &fakeFormDriver{validAfterResets: 99}
	e := New(d, testConfig())

	err := e.SelectValidated(context.Background(), "#itipo", "3", "#imarca", "vehicle type")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrBuggedState)
	// Resets happen between attempts only, never after the last one.
	assert.Equal(t, 2, e.Resets())

	_, ok := e.Expected("#itipo")
	assert.False(t, ok)
}

func TestSelectValidatedWithoutDependent(t *testing.T) {
	// No next locator means no populate validation and no resets.
	d := &fakeFormDriver{validAfterResets: 99}
	e := New(d, testConfig())

	err := e.SelectValidated(context.Background(), "#imodel", "1234", "", "model")
	require.NoError(t, err)
	assert.Equal(t, 0, e.Resets())
}

func TestValidOptionsFiltersPlaceholders(t *testing.T) {
	d := &fakeFormDriver{validAfterResets: 0}
	e := New(d, testConfig())

	opts, err := e.ValidOptions(context.Background(), "#imarca")
	require.NoError(t, err)
	require.Len(t, opts, 2)
	assert.Equal(t, "AJP", opts[0].Text)
	assert.Equal(t, "APRILIA", opts[1].Text)
}

func TestValidOptionsRecoversFromEmptyDropdown(t *testing.T) {
	d := &fakeFormDriver{validAfterResets: 1}
	e := New(d, testConfig())

	opts, err := e.ValidOptions(context.Background(), "#imarca")
	require.NoError(t, err)
	assert.Len(t, opts, 2)
	assert.Equal(t, 1, e.Resets())
}

func TestValidOptionsExhaustsRecoveryBudget(t *testing.T) {
	d := &fakeFormDriver{validAfterResets: 99}
	e := New(d, testConfig())

	_, err := e.ValidOptions(context.Background(), "#imarca")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrBuggedState)
}

func TestResetFormClearsExpectedState(t *testing.T) {
	d := &fakeFormDriver{validAfterResets: 0}
	e := New(d, testConfig())

	require.NoError(t, e.SelectValidated(context.Background(), "#itipo", "3", "#imarca", "vehicle type"))
	_, ok := e.Expected("#itipo")
	require.True(t, ok)

	require.NoError(t, e.ResetForm(context.Background()))
	_, ok = e.Expected("#itipo")
	assert.False(t, ok)
}
