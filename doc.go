/*
Command radxfer simulates the microwave radiance a sensor sees through a
planetary atmosphere, with the Jacobian of that radiance with respect to
atmospheric and spectroscopic parameters.

Contents

  Program overview
  Command line usage
  Configuration
  Input format
  Output format
  Algorithm outline


Program overview

Input is a file of lines of sight, one per line.  Each is traced through a
standard atmosphere, absorption and emission by the 118.75 GHz oxygen line
are integrated along it, and the result is convolved over the antenna
pattern.  Output is radiance or brightness temperature at each configured
frequency and polarization, optionally followed by Jacobian totals.

Sample run:

Here are two lines of sight, one looking down from orbit and one looking up
from the ground.

   # lat lon alt za aa
   10 20 800e3 170 45
   45 -100 0 30 0

You put them in a file, say los.txt, then type "radxfer los.txt" and get
one block of output per line of sight, in input order.  Lines of sight are
simulated concurrently, one per core.


Command line usage

Invoking the program without arguments shows this usage prompt.

  Usage: radxfer [options] <losfile>    simulate lines of sight in file
         radxfer [options] -            simulate lines of sight from stdin
         radxfer -h                     display help and quick reference
         radxfer -v                     display version and copyright

  Options:
         -e <env-file>    read configuration variables from env-file
         -j               print Jacobian totals per target


Configuration

All settings come from environment variables named RADXFER_*, listed by
radxfer -h.  A file named .env in the working directory is read if present;
-e names a different file, which must exist.  Variables set in the
environment take precedence over either file.  Every variable has a default
and invalid values stop the program before any line of sight is read.


Input format

   lat lon alt za aa [time]

Latitude and longitude in degrees, altitude in meters above the reference
ellipsoid, zenith and azimuth angles of the line of sight in degrees, and
optionally a time in seconds.  Blank lines and lines starting with # are
ignored.  Lines that do not parse are logged and skipped.


Output format

Each line of sight starts with a line

   # n lat <angle> lon <angle> alt <km> za <deg> aa <deg> surface <k>/<beams>

where k is the number of antenna beams whose path ended at the surface
rather than in space.  A line follows for each frequency in GHz with one
value per polarization.  With -j each polarization is followed by the sum
over the state grid of the derivative with respect to each target.


Algorithm outline

1.  The atmosphere is a gridded field over time, altitude, latitude and
longitude, interpolated multilinearly.  Pressure is interpolated in
logarithm.

2.  Each beam of the antenna pattern is traced from the sensor in straight
steps until it reaches the surface or leaves the atmosphere.

3.  At each path point the propagation matrix and source are assembled from
the line list: line strength, line shape with pressure and Doppler
broadening, optional Zeeman splitting, and analytic derivatives of all of
these with respect to every Jacobian target.

4.  Radiance is integrated from the far end of the path toward the sensor
through the transmission matrix of each layer, carrying the derivative of
the sensor radiance with respect to every target at every path point.

5.  Beam results are weighted and summed, path point derivatives are mapped
back onto the atmospheric grid, and the surface temperature derivative is
added where a beam sees the surface.

-------------
Public domain.
*/
package main
