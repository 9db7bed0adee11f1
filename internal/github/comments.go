package github

import "fmt"

// Comment templates posted by the bot. The texts follow the bot's
// established voice; tests match on the load-bearing fragments (the
// command, the result link, the expiry notice), not the full wording.

// WelcomeComment greets a contributor on a newly opened pull request and
// explains the generate command.
func WelcomeComment(botUsername string) string {
	return fmt.Sprintf("Beep, boop 🤖  Hi, I'm %[1]s and I'm going to help you"+
		" with your pull request. Thanks for your contribution! 🎉\n"+
		"In order to proceed please reply with the following comment:\n"+
		"`%[2]s generate`\n"+
		"This will trigger the generation of some test data for your"+
		" contribution. Once the data is generated, I will let you know"+
		" and you can proceed with the review.",
		botUsername[1:], botUsername)
}

// AckComment acknowledges a valid generate command.
func AckComment() string {
	return "Beep, boop 🤖  Generating test data for your pull request.\n\n" +
		"This may take a few seconds..."
}

// NotPullRequestComment rejects a generate command on a plain issue.
func NotPullRequestComment() string {
	return "Beep, boop 🤖  Sorry, I can only generate test data for pull requests."
}

// UnknownCommandComment rejects a comment addressed to the bot that is not
// a recognized command.
func UnknownCommandComment(botUsername string) string {
	return fmt.Sprintf("Beep, boop 🤖  Sorry, I don't understand that command."+
		" Please reply with `%s generate` to trigger test data generation"+
		" for your pull request.", botUsername)
}

// ResultComment delivers the link to the generated data along with its
// expiry window.
func ResultComment(resultURL string, expiryDays int) string {
	return fmt.Sprintf("Beep, boop 🤖  The test data has been generated!\n\n"+
		"Find your results [here](%s).\n\n"+
		"*This URL expires in %d days.*", resultURL, expiryDays)
}
