// Copyright 2026 The BetterAutoModerator Authors. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package rule

// Standards are pre-canned domain and regex lists selected by the `standard:`
// key. The tables mirror the lists AutoModerator wikis have carried around for
// years, so they stay as data here rather than something configurable.

type standard struct {
	key   string
	value any
}

// standards maps each standard name to the config entries it injects.
var standards = map[string][]standard{
	"image hosting sites": {
		{"domain", toAny([]string{
			"500px.com", "abload.de", "anony.ws", "deviantart.com", "deviantart.net",
			"fav.me", "fbcdn.net", "flickr.com", "forgifs.com", "giphy.com",
			"gfycat.com", "gifs.com", "gifsoup.com", "gyazo.com", "imageshack.us",
			"imgclean.com", "imgur.com", "instagr.am", "instagram.com",
			"i.reddituploads.com", "mediacru.sh", "media.tumblr.com", "min.us",
			"minus.com", "myimghost.com", "photobucket.com", "picsarus.com",
			"postimg.org", "puu.sh", "i.redd.it", "sli.mg", "staticflickr.com",
			"tinypic.com", "twitpic.com", "ibb.co",
		})},
	},
	"direct image links": {
		{"url (regex)", `\.(jpe?g|png|gifv?)(\?\S*)?$`},
	},
	"streaming sites": {
		{"domain", toAny([]string{
			"twitch.tv", "livestream.com", "azubu.tv", "hitbox.tv", "ustream.tv",
		})},
		{"~domain", "content.azubu.tv"},
	},
	"video hosting sites": {
		{"domain", toAny([]string{
			"youtube.com", "youtu.be", "vimeo.com", "dailymotion.com",
			"liveleak.com", "mediacru.sh", "worldstarhiphop.com", "gfycat.com",
			"vid.me",
		})},
	},
	"meme generator sites": {
		{"domain", toAny([]string{
			"9gag.com", "cheezburger.com", "chzbgr.com", "diylol.com",
			"dropmeme.com", "generatememes.com", "ifunny.co", "imgflip.com",
			"ismeme.com", "livememe.com", "makeameme.org", "meme-generator.org",
			"memecaptain.com", "memecenter.com", "memecloud.net", "memecreator.org",
			"memecrunch.com", "memedad.com", "memegen.com", "memegenerator.co",
			"memegenerator.net", "mememaker.net", "memesly.com", "memesnap.com",
			"minimemes.net", "onsizzle.com", "pressit.co", "qkme.me",
			"quickmeme.com", "ratemymeme.com", "sizzle.af", "troll.me",
			"weknowmemes.com", "winmeme.com", "wuzu.se",
		})},
	},
	"facebook links": {
		{"url+body (regex)", toAny([]string{
			`facebook\.com`, `fbcdn\.net`, `fb\.com`, `fb\.me`,
			`fbcdn-s?photos-.*?\.akamaihd\.net`,
		})},
	},
	"amazon affiliate links": {
		{"url+body (regex)", `(amazon|amzn)\.(com|co\.uk|ca)\S+?tag=`},
	},
	"crowdfunding sites": {
		{"domain", toAny([]string{
			"crowdrise.com", "kickstarter.com", "kck.st", "giveforward.com",
			"gogetfunding.com", "indiegogo.com", "igg.me", "generosity.com",
			"gofundme.com", "patreon.com", "prefundia.com", "razoo.com",
			"totalgiving.co.uk", "youcaring.com", "youcaring.net", "youcaring.org",
			"petcaring.com", "walacea.com",
		})},
	},
}

func toAny(in []string) []any {
	out := make([]any, len(in))
	for i, s := range in {
		out[i] = s
	}
	return out
}
