package interpreter

// Replies as the upstream recommender emits them today.
const fullReply = `Based on your travel preferences, here's my analysis:

✈️ FLIGHT OPTIONS (10 found)
Price range: $382 - $620
Within soft budget ($600): 9 options

📋 Top 3 Flight Options:

1. Hawaiian - $382 ✓ Within budget
   Departure: 2026-02-23 at 23:45
   Return: 2026-03-02 at 14:20
   Duration: 6.0h, Layovers: 0

🏨 HOTEL OPTIONS (6 found)
Nightly rate range: $86 - $320
Within your budget: 3 options

📋 Top 3 Hotel Options:

1. Marriott Bangalore - $86/night ⚠️ Outside budget ⭐ Preferred brand
   Rating: 3.0/5.0
   Total for 7 nights: $598

🔄 ALTERNATIVE OPTION

📋 Alternative Flight:

1. United - $450 ✓ Within budget
   Departure: 2026-02-24 at 08:30
   Return: 2026-03-03 at 14:20
   Duration: 8.5h, Layovers: 1
   Reason: Different dates for flexibility

📋 Alternative Hotel:

1. Hilton Bangalore - $114/night ⚠️ Outside budget ⭐ Preferred brand
   Rating: 3.4/5.0
   Total for 7 nights: $798

💬 Feel free to ask follow-up questions`

const hotelsReply = `🏨 HOTEL OPTIONS (6 found)
Nightly rate range: $86 - $320
Within your budget: 3 options
Preferred brands available: 0 options

📋 Top 3 Hotel Options:

1. Marriott Bangalore - $86/night ⚠️ Outside budget ⭐ Preferred brand
   Rating: 3.0/5.0
   Total for 7 nights: $598
   💰 Storm discount - reduced rates due to weather forecast

2. Hilton Bangalore - $114/night ⚠️ Outside budget ⭐ Preferred brand
   Rating: 3.4/5.0
   Total for 7 nights: $798

3. Hyatt Bangalore - $200/night ✓ Within budget
   Rating: 3.8/5.0
   Total for 7 nights: $1400

✨ RECOMMENDED TRAVEL WINDOW`

const notesReply = `Based on your travel preferences and current conditions, here's my analysis for Maui:

👤 YOUR PROFILE
Citizenship: USA

🛂 VISA & ENTRY REQUIREMENTS
✅ No visa required (domestic travel within USA)


🌤️ WEATHER ANALYSIS
Weather forecast for Maui: Mostly sunny with trade winds.

⚠️ Storm Alert: 1 period(s) with storm risk detected.


✨ RECOMMENDED TRAVEL WINDOW

Dates: 2026-02-23 to 2026-03-02`

// A reply whose emoji markers were mangled by a wrong code page on the way.
const garbledReply = `âœˆï¸ FLIGHT OPTIONS (10 found)
Price range: $382 - $620
Within soft budget ($600): 9 options

ğŸ“‹ Top 3 Flight Options:

1. Hawaiian - $382 âœ“ Within budget
   Departure: 2026-02-23 at 23:45
   Return: 2026-03-02 at 14:20
   Duration: 6.0h, Layovers: 0

ğŸ¨ HOTEL OPTIONS (6 found)`
