// Package locales picks a language for user facing replies. Korean is the
// source language, English is the only translation.
package locales

import (
	"guildpass/constants"

	"github.com/bwmarrin/discordgo"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var supported = []language.Tag{
	language.Korean, // first entry is the fallback
	language.English,
}

var matcher = language.NewMatcher(supported)

var english = map[string]string{
	constants.MsgMissingCode:      "❌ Authorization failed: no code was provided.",
	constants.MsgCodeReused:       "❌ Authorization failed: this code was already used.",
	constants.MsgTokenFailed:      "❌ Failed to obtain a token: %s",
	constants.MsgNoAccessToken:    "❌ No access token was returned.",
	constants.MsgUserFetchFailed:  "❌ Failed to fetch user info: %s",
	constants.MsgStoreFailed:      "❌ Could not save your authorization. Please try again later.",
	constants.MsgApproved:         "✅ Approved! Go back to Discord and use the /%s command.",
	constants.MsgInvitePrompt:     "Press the button below to approve joining the server.",
	constants.MsgInviteButton:     "Join the server on my behalf",
	constants.MsgNoUsers:          "No users have authorized yet.",
	constants.MsgDispatchResult:   "✅ Invited %d members, %d failed",
	constants.MsgDispatchFailed:   "❌ Could not run the invites.",
	constants.MsgGuildOnly:        "This command can only be used in a server.",
	constants.MsgGuildNotAllowed:  "This command is not enabled in this server.",
	constants.DescInviteCommand:   "Sends the server join approval button",
	constants.DescDispatchCommand: "Adds every authorized user to this server",
}

func init() {
	for key, en := range english {
		// Korean strings are their own keys
		if err := message.SetString(language.Korean, key, key); err != nil {
			panic(err)
		}

		if err := message.SetString(language.English, key, en); err != nil {
			panic(err)
		}
	}
}

// Match returns the best supported language for the given tags, Korean if
// nothing matches
func Match(tags ...language.Tag) language.Tag {
	_, idx, _ := matcher.Match(tags...)
	return supported[idx]
}

// Printer returns a printer for a single supported tag
func Printer(tag language.Tag) *message.Printer {
	return message.NewPrinter(Match(tag))
}

// FromAcceptLanguage parses an Accept-Language header
func FromAcceptLanguage(header string) *message.Printer {
	tags, _, err := language.ParseAcceptLanguage(header)

	if err != nil || len(tags) == 0 {
		return message.NewPrinter(supported[0])
	}

	return message.NewPrinter(Match(tags...))
}

// FromDiscord maps an interaction locale (ko, en-US, en-GB ...)
func FromDiscord(locale discordgo.Locale) *message.Printer {
	tag, err := language.Parse(string(locale))

	if err != nil {
		return message.NewPrinter(supported[0])
	}

	return Printer(tag)
}

// Localizations returns the non Korean translations of key, keyed the way
// Discord expects for command descriptions
func Localizations(key string) *map[discordgo.Locale]string {
	en, ok := english[key]

	if !ok {
		return nil
	}

	return &map[discordgo.Locale]string{
		discordgo.EnglishUS: en,
		discordgo.EnglishGB: en,
	}
}
