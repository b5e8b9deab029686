package cli

import (
	"fmt"

	"github.com/T-Klug/aws-cur-report-generator/pkg/version"
	"github.com/fatih/color"
)

// displayWelcomeBanner prints the welcome banner with version information.
func displayWelcomeBanner(versionStr string) {
	banner := `
          /$$$$$$  /$$   /$$ /$$$$$$$        /$$$$$$$                                          /$$
         /$$__  $$| $$  | $$| $$__  $$      | $$__  $$                                        | $$
        | $$  \__/| $$  | $$| $$  \ $$      | $$  \ $$  /$$$$$$   /$$$$$$   /$$$$$$   /$$$$$$ | $$$$$$
        | $$      | $$  | $$| $$$$$$$/      | $$$$$$$/ /$$__  $$ /$$__  $$ /$$__  $$ /$$__  $$|_  $$_/
        | $$      | $$  | $$| $$__  $$      | $$__  $$| $$$$$$$$| $$  \ $$| $$  \ $$| $$  \__/  | $$
        | $$    $$| $$  | $$| $$  \ $$      | $$  \ $$| $$_____/| $$  | $$| $$  | $$| $$        | $$ /$$
        |  $$$$$$/|  $$$$$$/| $$  | $$      | $$  | $$|  $$$$$$$| $$$$$$$/|  $$$$$$/| $$        |  $$$$/
         \______/  \______/ |__/  |__/      |__/  |__/ \_______/| $$____/  \______/ |__/         \___/
                                                                | $$
                                                                | $$
                                                                |__/
        `
	orange := color.New(color.FgYellow, color.Bold).SprintFunc()
	blue := color.New(color.FgBlue, color.Bold).SprintFunc()

	fmt.Println(orange(banner))

	formattedVersion := version.FormatVersion()
	fmt.Println(blue(fmt.Sprintf("AWS CUR Report Generator (v%s)", formattedVersion)))
}
