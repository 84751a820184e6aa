package application

import "math/rand/v2"

// spaceFacts is the curated rotation shown alongside the gallery.
var spaceFacts = []string{
	"One day on Venus is longer than one year on Venus! It takes 243 Earth days to rotate once but only 225 Earth days to orbit the Sun.",
	"There are more possible games of chess than there are atoms in the observable universe.",
	"A neutron star is so dense that a teaspoon of its material would weigh about 6 billion tons on Earth.",
	"The footprints left by Apollo astronauts on the Moon will last for millions of years because there's no wind to blow them away.",
	"Jupiter's Great Red Spot is a storm that has been raging for at least 400 years and is larger than Earth.",
	"If you could drive a car to the Sun at 60 mph, it would take you over 100 years to get there.",
	"Saturn's moon Titan has lakes and rivers made of liquid methane and ethane instead of water.",
	"The Milky Way galaxy is on a collision course with the Andromeda galaxy, but don't worry - it won't happen for 4.5 billion years!",
	"A single bolt of lightning contains enough energy to toast 100,000 slices of bread.",
	"The International Space Station travels at 17,500 mph and orbits Earth every 90 minutes.",
	"Mars has the largest volcano in the solar system - Olympus Mons is about 13.6 miles high, nearly three times taller than Mount Everest.",
	"There are more stars in the universe than grains of sand on all the beaches on Earth.",
	"The Sun is so massive that it accounts for 99.86% of the total mass of our solar system.",
	"Mercury has no atmosphere, so temperatures can range from 800°F during the day to -300°F at night.",
	"A year on Pluto lasts 248 Earth years, so if you were born on Pluto, you'd have to wait almost 250 years for your first birthday!",
	"The universe is expanding so fast that galaxies are moving away from us faster than the speed of light.",
	"Black holes don't actually suck things in - they warp space-time so severely that nothing can escape once it crosses the event horizon.",
	"The coldest place in the universe isn't in space - it's in laboratories on Earth where scientists have reached temperatures near absolute zero.",
	"Betelgeuse, one of the brightest stars in the night sky, could explode as a supernova at any time in the next 100,000 years.",
	"The Hubble Space Telescope has traveled more than 4 billion miles in its orbit around Earth - that's like traveling to Neptune and back!",
	"Europa, one of Jupiter's moons, has twice as much water as all of Earth's oceans combined, hidden beneath its icy surface.",
	"A day on Mercury lasts 59 Earth days, but a year on Mercury is only 88 Earth days long.",
	"The Voyager 1 spacecraft, launched in 1977, is now over 14 billion miles from Earth and still sending data back to NASA.",
	"If Earth were the size of a marble, the Sun would be the size of a basketball located about 26 yards away.",
	"Astronauts can grow up to 2 inches taller in space because the lack of gravity allows their spine to stretch out.",
}

// FactService hands out random space facts for the GUI's fact panel.
type FactService struct {
	facts []string
	pick  func(n int) int
}

// NewFactService creates a FactService over the built-in fact list.
func NewFactService() *FactService {
	return &FactService{facts: spaceFacts, pick: rand.IntN}
}

// Random returns one fact from the rotation.
func (s *FactService) Random() string {
	return s.facts[s.pick(len(s.facts))]
}

// Count reports the size of the rotation.
func (s *FactService) Count() int {
	return len(s.facts)
}
