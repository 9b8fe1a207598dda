package cli

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/AlecAivazis/survey/v2"
)

// PromptForPeriod asks for the year and month to export.
func PromptForPeriod(defaultYear, defaultMonth int) (int, int, error) {
	var yearStr string
	yearPrompt := &survey.Input{
		Message: "Enter the calendar year:",
		Help:    "Four digit year, e.g. 2024",
		Default: strconv.Itoa(defaultYear),
	}
	err := survey.AskOne(yearPrompt, &yearStr, survey.WithValidator(func(val interface{}) error {
		_, err := parseYear(val.(string))
		return err
	}))
	if err != nil {
		return 0, 0, err
	}
	year, _ := parseYear(yearStr)

	months := monthOptions()
	var selected string
	monthPrompt := &survey.Select{
		Message: "Select the month:",
		Options: months,
		Default: months[clampMonth(defaultMonth)-1],
	}
	if err := survey.AskOne(monthPrompt, &selected); err != nil {
		return 0, 0, err
	}

	month, err := parseMonthOption(selected)
	if err != nil {
		return 0, 0, err
	}
	return year, month, nil
}

func parseYear(s string) (int, error) {
	year, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0, fmt.Errorf("invalid year, use four digits")
	}
	if year < 1900 || year > time.Now().Year()+1 {
		return 0, fmt.Errorf("year must be between 1900 and %d", time.Now().Year()+1)
	}
	return year, nil
}

func monthOptions() []string {
	options := make([]string, 12)
	for m := 1; m <= 12; m++ {
		options[m-1] = fmt.Sprintf("%02d - %s", m, time.Month(m))
	}
	return options
}

func parseMonthOption(option string) (int, error) {
	num, _, _ := strings.Cut(option, " ")
	month, err := strconv.Atoi(num)
	if err != nil || month < 1 || month > 12 {
		return 0, fmt.Errorf("invalid month selection %q", option)
	}
	return month, nil
}

func clampMonth(month int) int {
	if month < 1 {
		return 1
	}
	if month > 12 {
		return 12
	}
	return month
}
