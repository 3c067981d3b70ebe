// Command dodgectl inspects and maintains a dodgeball classroom database
// from the terminal.
package main

func main() {
	Execute()
}
