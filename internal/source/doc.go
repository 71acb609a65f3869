// Package source provides the motion.Source implementations motiontrail
// can be fed from: a daemon websocket stream, a serial-attached
// microcontroller, a recorded session, or generated motion.
package source
