package ptrhash

// findFreePilot scans the full pilot range for a placement where every slot
// is free and the bucket collides with none of its own keys. On success the
// computed slots are left in s.slotsBuf for placeBucket. Small bucket sizes
// get dedicated paths; the skewed bucket distribution makes them the common
// case by far.
func (s *solver) findFreePilot(bucket []Hash) (uint8, bool) {
	switch len(bucket) {
	case 1:
		return s.findFreePilot1(bucket)
	case 2:
		return s.findFreePilot2(bucket)
	case 3:
		return s.findFreePilot3(bucket)
	case 4:
		return s.findFreePilot4(bucket)
	default:
		return s.findFreePilotSlice(bucket)
	}
}

func (s *solver) findFreePilot1(bucket []Hash) (uint8, bool) {
	numSlots := s.numSlots
	slotGen := s.slotGen
	gen := s.generation

	hf0 := foldSlotInput(bucket[0].K0, bucket[0].K1)
	for pilotInt := range numPilotValues {
		slot := pilotSlotFolded(hf0, s.pilotHPs[pilotInt], numSlots)
		if slotGen[slot] != gen {
			s.slotsBuf[0] = uint16(slot)
			return uint8(pilotInt), true
		}
	}
	return 0, false
}

func (s *solver) findFreePilot2(bucket []Hash) (uint8, bool) {
	numSlots := s.numSlots
	slotGen := s.slotGen
	gen := s.generation

	hf0 := foldSlotInput(bucket[0].K0, bucket[0].K1)
	hf1 := foldSlotInput(bucket[1].K0, bucket[1].K1)
	for pilotInt := range numPilotValues {
		hp := s.pilotHPs[pilotInt]
		s0 := pilotSlotFolded(hf0, hp, numSlots)
		if slotGen[s0] == gen {
			continue
		}
		s1 := pilotSlotFolded(hf1, hp, numSlots)
		if s0 == s1 || slotGen[s1] == gen {
			continue
		}
		s.slotsBuf[0] = uint16(s0)
		s.slotsBuf[1] = uint16(s1)
		return uint8(pilotInt), true
	}
	return 0, false
}

func (s *solver) findFreePilot3(bucket []Hash) (uint8, bool) {
	numSlots := s.numSlots
	slotGen := s.slotGen
	gen := s.generation

	hf0 := foldSlotInput(bucket[0].K0, bucket[0].K1)
	hf1 := foldSlotInput(bucket[1].K0, bucket[1].K1)
	hf2 := foldSlotInput(bucket[2].K0, bucket[2].K1)
	for pilotInt := range numPilotValues {
		hp := s.pilotHPs[pilotInt]
		s0 := pilotSlotFolded(hf0, hp, numSlots)
		s1 := pilotSlotFolded(hf1, hp, numSlots)
		s2 := pilotSlotFolded(hf2, hp, numSlots)
		if slotGen[s0] == gen || slotGen[s1] == gen || slotGen[s2] == gen {
			continue
		}
		if s0 == s1 || s0 == s2 || s1 == s2 {
			continue
		}
		s.slotsBuf[0] = uint16(s0)
		s.slotsBuf[1] = uint16(s1)
		s.slotsBuf[2] = uint16(s2)
		return uint8(pilotInt), true
	}
	return 0, false
}

func (s *solver) findFreePilot4(bucket []Hash) (uint8, bool) {
	numSlots := s.numSlots
	slotGen := s.slotGen
	gen := s.generation

	hf0 := foldSlotInput(bucket[0].K0, bucket[0].K1)
	hf1 := foldSlotInput(bucket[1].K0, bucket[1].K1)
	hf2 := foldSlotInput(bucket[2].K0, bucket[2].K1)
	hf3 := foldSlotInput(bucket[3].K0, bucket[3].K1)
	for pilotInt := range numPilotValues {
		hp := s.pilotHPs[pilotInt]
		s0 := pilotSlotFolded(hf0, hp, numSlots)
		s1 := pilotSlotFolded(hf1, hp, numSlots)
		s2 := pilotSlotFolded(hf2, hp, numSlots)
		s3 := pilotSlotFolded(hf3, hp, numSlots)
		if slotGen[s0] == gen || slotGen[s1] == gen || slotGen[s2] == gen || slotGen[s3] == gen {
			continue
		}
		if s0 == s1 || s0 == s2 || s0 == s3 || s1 == s2 || s1 == s3 || s2 == s3 {
			continue
		}
		s.slotsBuf[0] = uint16(s0)
		s.slotsBuf[1] = uint16(s1)
		s.slotsBuf[2] = uint16(s2)
		s.slotsBuf[3] = uint16(s3)
		return uint8(pilotInt), true
	}
	return 0, false
}

func (s *solver) findFreePilotSlice(bucket []Hash) (uint8, bool) {
	numSlots := s.numSlots
	slotGen := s.slotGen
	gen := s.generation

	n := len(bucket)
	slots := s.slotsBuf[:n]
	folded := s.foldedBuf[:n]
	for i, h := range bucket {
		folded[i] = foldSlotInput(h.K0, h.K1)
	}

	for pilotInt := range numPilotValues {
		hp := s.pilotHPs[pilotInt]
		anyTaken := false
		for i := range n {
			slot := pilotSlotFolded(folded[i], hp, numSlots)
			if slotGen[slot] == gen {
				anyTaken = true
				break
			}
			slots[i] = uint16(slot)
		}
		if anyTaken {
			continue
		}
		if s.noDuplicateSlots(slots) {
			return uint8(pilotInt), true
		}
	}
	return 0, false
}
