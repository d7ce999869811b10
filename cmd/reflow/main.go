// Reflow CLI runs demo pipelines and common development tasks for the
// Reflow reactive UI pipeline.
package main

func main() {
	Execute()
}
