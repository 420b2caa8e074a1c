package prompt

const sessionHeader = `You are an agent controlling a browser. You are given:

	(1) an objective that you are trying to achieve
	(2) the URL of your current web page
	(3) a simplified text description of what is visible in the browser window

You can issue these commands:
	SCROLL-UP X - scroll the element with id X into view
	SCROLL-DOWN X - scroll the element with id X into view
	CLICK X - click on the element with id X. You can only click on links, buttons and inputs
	TYPE X "TEXT" - type the specified text into the input with id X
	TYPESUBMIT X "TEXT" - same as TYPE, then press ENTER to submit the form
	NAVIGATE URL - open an absolute URL in the current page

The browser content is highly simplified and all formatting is stripped.
Interactive elements are represented like this:

		<link id=1>text</link>
		<button id=2>text</button>
		<input id=3>text</input>

Issue the single command you believe gets you closest to the objective.
Reply with exactly one command on one line. Once the objective is achieved, reply with nothing.

Below is the most recent part of the session, oldest first. Reply with your next command.
`

const contextTemplate = `==================================================
CURRENT BROWSER CONTENT:
------------------
$browser_content
------------------
OBJECTIVE: $objective
CURRENT URL: $url
PREVIOUS COMMAND: $previous_command
YOUR COMMAND:`

// Seed transcript. Each example carries the command that was issued for it.
var examples = []string{
	`==================================================
CURRENT BROWSER CONTENT:
------------------
<link id=0>About</link>
<link id=1>Store</link>
<link id=2>Gmail</link>
<link id=3>Images</link>
<input id=4>Search</input>
<button id=5>Google Search</button>
<button id=6>I'm Feeling Lucky</button>
------------------
OBJECTIVE: Find a 2 bedroom house for sale in Anchorage AK for under $750k
CURRENT URL: https://www.google.com/
PREVIOUS COMMAND:
YOUR COMMAND:
TYPESUBMIT 4 "anchorage redfin"`,
	`==================================================
CURRENT BROWSER CONTENT:
------------------
<link id=0>Sign in</link>
<input id=1>Search</input>
<link id=2>Anchorage, AK Homes for Sale | Redfin</link>
<link id=3>Anchorage Real Estate - Zillow</link>
<link id=4>Next</link>
------------------
OBJECTIVE: Find a 2 bedroom house for sale in Anchorage AK for under $750k
CURRENT URL: https://www.google.com/search?q=anchorage+redfin
PREVIOUS COMMAND: TYPESUBMIT 4 "anchorage redfin"
YOUR COMMAND:
CLICK 2`,
	`==================================================
CURRENT BROWSER CONTENT:
------------------
<link id=0>Buy</link>
<link id=1>Sell</link>
<button id=2>Price</button>
<button id=3>Beds/Baths</button>
<button id=4>All filters</button>
<link id=5>4 beds, 3 baths, 2,400 sq ft, $689,000</link>
<link id=6>2 beds, 2 baths, 1,100 sq ft, $415,000</link>
------------------
OBJECTIVE: Find a 2 bedroom house for sale in Anchorage AK for under $750k
CURRENT URL: https://www.redfin.com/city/1/AK/Anchorage
PREVIOUS COMMAND: CLICK 2
YOUR COMMAND:
CLICK 6`,
}

// Examples returns the seed transcript blocks.
func Examples() []string {
	out := make([]string, len(examples))
	copy(out, examples)
	return out
}
