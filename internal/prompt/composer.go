// Package prompt wraps the concept's edit instruction in the booth's fixed
// constraint template before it reaches the generation API.
package prompt

// hardLock is prepended verbatim to every instruction. Constraints come before
// the change request so the model anchors on identity and framing first.
const hardLock = `*** EDIT MODE: HARD LOCK ENABLED ***
STRICT CONSTRAINTS:
1. PRESERVE IDENTITY: Face, features, and skin tone must remain EXACTLY the same.
2. PRESERVE STRUCTURE: Pose, posture, hand gestures, and body shape must remain EXACTLY the same.
3. PRESERVE FRAMING: Camera angle, zoom, and composition must remain EXACTLY the same. DO NOT CROP. DO NOT ZOOM.
4. PRESERVE HAIR/HEAD: Keep hairstyle/hijab shape identical unless explicitly asked to change.

CHANGE REQUEST:
`

// Compose builds the final prompt sent to the model. The instruction is
// opaque prose, so plain concatenation is enough; no escaping is needed.
func Compose(instruction string) string {
	return hardLock + instruction
}
